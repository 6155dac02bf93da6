package convo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra/khatabot/internal/intent"
	"github.com/dmehra/khatabot/internal/ledger"
	"github.com/dmehra/khatabot/internal/session"
)

// execute runs a confirmed action against one resolved target record.
// On success the session returns to idle with history cleared; on a store
// failure the pending action survives so the user can retry.
func (o *Orchestrator) execute(ctx context.Context, state *session.State, p *intent.ParsedIntent, target *ledger.Obligation) Output {
	var out Output
	switch p.Action {
	case intent.ActionSettle:
		out = o.executeSettle(ctx, state, p, target)
	case intent.ActionEdit:
		out = o.executeEdit(ctx, state, p, target)
	case intent.ActionDelete:
		out = o.executeDelete(ctx, state, p, target)
	default:
		state.Reset()
		out = Output{Reply: msgParseFailure}
	}
	return out
}

// executeAdd creates one obligation per listed person. With more than one
// person the total is split with the payer included in the divisor, and all
// created records share one group id. Creation is per-record atomic only:
// a mid-way failure leaves the earlier records in place and is reported as
// a partial success.
func (o *Orchestrator) executeAdd(ctx context.Context, state *session.State, p *intent.ParsedIntent) Output {
	total := *p.Amount

	kind := ledger.KindOneTime
	if p.Kind != nil {
		kind = *p.Kind
	}
	direction := p.Direction
	if direction == "" {
		direction = ledger.DirectionOwesMe
	}

	shares := []int64{total}
	groupID := ""
	if len(p.Persons) > 1 {
		var err error
		shares, err = ledger.SplitAmongOthers(total, len(p.Persons))
		if err != nil {
			state.Reset()
			return Output{Reply: fmt.Sprintf("I can't split that: %v.", err)}
		}
		groupID = uuid.NewString()
	}

	var created []string
	var failed []string
	for i, person := range p.Persons {
		ob := &ledger.Obligation{
			ID:               uuid.NewString(),
			GroupID:          groupID,
			PersonName:       person,
			Kind:             kind,
			Direction:        direction,
			TotalAmount:      shares[i],
			ExpectedPerCycle: p.ExpectedPerCycle,
			RemainingAmount:  shares[i],
			Status:           ledger.StatusActive,
			Note:             p.Note,
		}
		if err := o.store.Create(ctx, ob); err != nil {
			log.Printf("Failed to create obligation for %s: %v", person, err)
			failed = append(failed, person)
			continue
		}
		created = append(created, fmt.Sprintf("%s (%s)", person, ledger.FormatINR(shares[i])))
	}

	if len(created) == 0 {
		// Nothing committed; keep the pending action so a retry can work.
		return Output{Reply: msgStoreFailure, Confirm: true}
	}

	state.Reset()
	reply := "Done! Added: " + strings.Join(created, ", ")
	if len(failed) > 0 {
		reply += fmt.Sprintf("\nCould not save entries for %s — please add them again.", strings.Join(failed, ", "))
	}
	return Output{Reply: reply}
}

func (o *Orchestrator) executeSettle(ctx context.Context, state *session.State, p *intent.ParsedIntent, target *ledger.Obligation) Output {
	// A settle without an amount, or for the exact remainder, closes the
	// obligation outright.
	if p.Amount == nil || *p.Amount == target.RemainingAmount {
		settled, err := o.store.Settle(ctx, target.ID)
		if out, handled := o.mutationFailure(state, target.PersonName, err); handled {
			return out
		}
		state.Reset()
		return Output{Reply: fmt.Sprintf("%s: settled %s!", settled.PersonName, ledger.FormatINR(target.RemainingAmount))}
	}

	amount := *p.Amount
	if amount <= 0 {
		state.Reset()
		return Output{Reply: "Payments must be a positive amount — nothing recorded."}
	}

	txn := ledger.Transaction{Amount: amount, PaidAt: time.Now().UTC(), Note: p.Note}
	updated, err := o.store.AddTransaction(ctx, target.ID, txn)
	if errors.Is(err, ledger.ErrExceedsRemaining) {
		state.Reset()
		return Output{Reply: fmt.Sprintf("%s only has %s remaining — %s is more than that, so nothing was recorded.",
			target.PersonName, ledger.FormatINR(target.RemainingAmount), ledger.FormatINR(amount))}
	}
	if out, handled := o.mutationFailure(state, target.PersonName, err); handled {
		return out
	}

	state.Reset()
	if updated.Status == ledger.StatusSettled {
		return Output{Reply: fmt.Sprintf("%s: paid %s — all settled!", updated.PersonName, ledger.FormatINR(amount))}
	}
	return Output{Reply: fmt.Sprintf("%s: paid %s, %s remaining.",
		updated.PersonName, ledger.FormatINR(amount), ledger.FormatINR(updated.RemainingAmount))}
}

func (o *Orchestrator) executeEdit(ctx context.Context, state *session.State, p *intent.ParsedIntent, target *ledger.Obligation) Output {
	var upd ledger.Update
	if p.Amount != nil {
		// Changing the total re-derives the remainder from what has
		// already been paid.
		paid := target.TotalAmount - target.RemainingAmount
		remaining := *p.Amount - paid
		if remaining < 0 {
			remaining = 0
		}
		upd.TotalAmount = p.Amount
		upd.RemainingAmount = &remaining
	}
	if p.ExpectedPerCycle != nil {
		upd.ExpectedPerCycle = p.ExpectedPerCycle
	}
	if p.Note != "" {
		upd.Note = &p.Note
	}
	if upd.TotalAmount == nil && upd.ExpectedPerCycle == nil && upd.Note == nil {
		state.Reset()
		return Output{Reply: "I couldn't tell what to change. Try something like \"change Sunita's monthly deduction to 1500\"."}
	}

	updated, err := o.store.Update(ctx, target.ID, upd)
	if out, handled := o.mutationFailure(state, target.PersonName, err); handled {
		return out
	}

	state.Reset()
	return Output{Reply: fmt.Sprintf("Updated %s's obligation — %s remaining.",
		updated.PersonName, ledger.FormatINR(updated.RemainingAmount))}
}

func (o *Orchestrator) executeDelete(ctx context.Context, state *session.State, p *intent.ParsedIntent, target *ledger.Obligation) Output {
	err := o.store.Delete(ctx, target.ID)
	if out, handled := o.mutationFailure(state, target.PersonName, err); handled {
		return out
	}
	state.Reset()
	return Output{Reply: fmt.Sprintf("Deleted %s's obligation (%s remaining was outstanding).",
		target.PersonName, ledger.FormatINR(target.RemainingAmount))}
}

// mutationFailure maps store errors on a confirmed mutation to a reply.
// NotFound and Settled discard the pending action; transient store errors
// keep it so the user can confirm again without re-describing everything.
func (o *Orchestrator) mutationFailure(state *session.State, person string, err error) (Output, bool) {
	switch {
	case err == nil:
		return Output{}, false
	case errors.Is(err, ledger.ErrNotFound):
		state.Reset()
		return Output{Reply: fmt.Sprintf("No active obligation found for %s.", person)}, true
	case errors.Is(err, ledger.ErrSettled):
		state.Reset()
		return Output{Reply: fmt.Sprintf("%s's obligation is already settled.", person)}, true
	default:
		log.Printf("Mutation failed: %v", err)
		return Output{
			Reply:   msgStoreFailure,
			Confirm: state.Phase == session.PhaseAwaitingConfirmation,
			Choices: state.Choices,
		}, true
	}
}
