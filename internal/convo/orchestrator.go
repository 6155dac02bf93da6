// Package convo is the conversation orchestrator: it consumes one inbound
// utterance or button signal per call, drives intent extraction, session
// state and the ledger store, and produces exactly one outbound response.
// No mutation ever happens without an explicit confirmation.
package convo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/dmehra/khatabot/internal/intent"
	"github.com/dmehra/khatabot/internal/ledger"
	"github.com/dmehra/khatabot/internal/session"
)

// Signal distinguishes structured button presses from free-form text.
type Signal string

const (
	SignalNone   Signal = ""
	SignalYes    Signal = "yes"
	SignalNo     Signal = "no"
	SignalChoice Signal = "choice"
	SignalCancel Signal = "cancel"
)

// Input is one inbound turn from any transport.
type Input struct {
	ConvID   string
	Text     string
	Signal   Signal
	ChoiceID string
}

// Output is the single outbound response for a turn. Confirm asks the
// transport to render Yes/No; Choices asks it to render a pick list plus
// Cancel.
type Output struct {
	Reply   string
	Confirm bool
	Choices []session.Choice
}

const (
	msgParseFailure   = "I couldn't understand that. Could you rephrase?"
	msgStoreFailure   = "Something went wrong on my side — please try that again."
	msgCancelled      = "Okay, cancelled."
	msgNothingPending = "Nothing to confirm. Send a new message."
	msgPickOne        = "Please pick one of the options, or Cancel."
)

type Orchestrator struct {
	store     ledger.Store
	extractor intent.Extractor
	sessions  *session.Manager
}

func New(store ledger.Store, extractor intent.Extractor, sessions *session.Manager) *Orchestrator {
	return &Orchestrator{store: store, extractor: extractor, sessions: sessions}
}

// Handle processes one turn. Every failure is converted into a reply here;
// nothing propagates, and a failed turn never corrupts the session for the
// next one.
func (o *Orchestrator) Handle(ctx context.Context, in Input) Output {
	state := o.sessions.Get(in.ConvID)

	switch state.Phase {
	case session.PhaseAwaitingConfirmation:
		return o.handleAwaitingConfirmation(ctx, state, in)
	case session.PhaseAwaitingDisambiguation:
		return o.handleAwaitingDisambiguation(ctx, state, in)
	default:
		// Idle and awaiting-clarification route identically: the next
		// utterance goes through the extractor with history included.
		if in.Signal != SignalNone {
			return Output{Reply: msgNothingPending}
		}
		return o.runTurn(ctx, state, in.Text)
	}
}

// runTurn is a fresh pass through the extractor from Idle or
// AwaitingClarification.
func (o *Orchestrator) runTurn(ctx context.Context, state *session.State, text string) Output {
	text = strings.TrimSpace(text)
	if text == "" {
		return Output{Reply: msgParseFailure}
	}

	snapshot, err := o.store.ByStatus(ctx, ledger.StatusActive)
	if err != nil {
		log.Printf("Failed to load ledger snapshot: %v", err)
		return Output{Reply: msgStoreFailure}
	}

	result, err := o.extractor.Extract(ctx, text, snapshot, state.History())
	if err != nil {
		log.Printf("Intent extraction failed: %v", err)
		return Output{Reply: msgParseFailure}
	}
	p := result.Parsed

	switch {
	case p.Action == intent.ActionChitchat || p.Action == intent.ActionOffTopic:
		state.Reset()
		return Output{Reply: result.Message}

	case p.Action == intent.ActionQuery:
		reply := o.answerQuery(ctx, p)
		state.AppendExchange(text, reply)
		return Output{Reply: reply}

	case p.IsAmbiguous || !complete(p):
		question := p.ClarifyingQuestion
		if question == "" {
			question = result.Message
		}
		state.AppendExchange(text, question)
		state.Phase = session.PhaseAwaitingClarification
		return Output{Reply: question}

	case p.Action.Mutating():
		state.AppendExchange(text, result.Message)
		state.Stage(p, result.Message)
		return Output{Reply: result.Message, Confirm: true}
	}

	// The extractor validated the action set, so this is unreachable; fail
	// closed anyway.
	return Output{Reply: msgParseFailure}
}

// complete reports whether a mutating intent carries enough to stage.
func complete(p *intent.ParsedIntent) bool {
	switch p.Action {
	case intent.ActionAdd:
		return len(p.Persons) > 0 && p.Amount != nil && *p.Amount > 0
	case intent.ActionSettle, intent.ActionDelete, intent.ActionEdit:
		return len(p.Persons) > 0
	}
	return true
}

func (o *Orchestrator) handleAwaitingConfirmation(ctx context.Context, state *session.State, in Input) Output {
	switch effectiveSignal(in) {
	case SignalNo, SignalCancel:
		state.Reset()
		return Output{Reply: msgCancelled}
	case SignalYes:
		return o.confirm(ctx, state)
	default:
		return o.handleCorrection(ctx, state, in.Text)
	}
}

// effectiveSignal folds typed "yes"/"no" into the structured signals so the
// confirm step behaves the same over every transport.
func effectiveSignal(in Input) Signal {
	if in.Signal != SignalNone {
		return in.Signal
	}
	switch strings.ToLower(strings.TrimSpace(in.Text)) {
	case "yes", "y", "ok", "haan":
		return SignalYes
	case "no", "n", "nahi", "cancel":
		return SignalNo
	}
	return SignalNone
}

// confirm re-checks the pending action's target against the live ledger —
// never the snapshot captured at parse time — and either executes,
// disambiguates, or reports the record gone.
func (o *Orchestrator) confirm(ctx context.Context, state *session.State) Output {
	p := state.Pending
	if p == nil {
		state.Reset()
		return Output{Reply: msgNothingPending}
	}

	if p.Action == intent.ActionAdd {
		return o.executeAdd(ctx, state, p)
	}

	matches, err := o.store.ByPerson(ctx, p.Persons[0], ledger.StatusActive)
	if err != nil {
		// Pending action is preserved so the user can just confirm again.
		log.Printf("Failed to resolve candidates: %v", err)
		return Output{Reply: msgStoreFailure, Confirm: true}
	}

	switch len(matches) {
	case 0:
		state.Reset()
		return Output{Reply: fmt.Sprintf("No active obligation found for %s.", p.Persons[0])}
	case 1:
		return o.execute(ctx, state, p, &matches[0])
	default:
		choices := make([]session.Choice, 0, len(matches))
		for _, ob := range matches {
			choices = append(choices, session.Choice{ID: ob.ID, Label: choiceLabel(ob)})
		}
		state.Choices = choices
		state.Phase = session.PhaseAwaitingDisambiguation
		reply := fmt.Sprintf("%s has %d matching records — which one did you mean?", p.Persons[0], len(matches))
		return Output{Reply: reply, Choices: choices}
	}
}

func choiceLabel(ob ledger.Obligation) string {
	label := fmt.Sprintf("%s — %s (%s)", ob.PersonName, ledger.FormatINR(ob.RemainingAmount), ob.Kind)
	if ob.Note != "" {
		label += " — " + ob.Note
	}
	return label
}

// handleCorrection re-runs the extractor on a free-text reply to a
// confirmation prompt and updates the staged action in place.
func (o *Orchestrator) handleCorrection(ctx context.Context, state *session.State, text string) Output {
	snapshot, err := o.store.ByStatus(ctx, ledger.StatusActive)
	if err != nil {
		log.Printf("Failed to load ledger snapshot: %v", err)
		return Output{Reply: msgStoreFailure, Confirm: true}
	}

	result, err := o.extractor.Extract(ctx, text, snapshot, state.History())
	if err != nil {
		log.Printf("Intent extraction failed: %v", err)
		return Output{Reply: msgParseFailure, Confirm: true}
	}
	p := result.Parsed

	if !p.Action.Mutating() {
		// Side question mid-confirmation: answer it, keep the staged action.
		reply := result.Message
		if p.Action == intent.ActionQuery {
			reply = o.answerQuery(ctx, p)
		}
		state.AppendExchange(text, reply)
		return Output{Reply: reply + "\n\n" + state.PendingPrompt, Confirm: true}
	}

	merged := mergeIntent(state.Pending, p)
	if p.IsAmbiguous || !complete(merged) {
		// The correction changed the action into something that cannot be
		// staged yet (say, an add with no amount): drop the pending action
		// and ask instead of staging an unexecutable one.
		question := p.ClarifyingQuestion
		if question == "" {
			question = result.Message
		}
		state.AppendExchange(text, question)
		state.Pending = nil
		state.PendingPrompt = ""
		state.Choices = nil
		state.Phase = session.PhaseAwaitingClarification
		return Output{Reply: question}
	}

	state.AppendExchange(text, result.Message)
	state.Stage(merged, result.Message)
	return Output{Reply: result.Message, Confirm: true}
}

// mergeIntent overlays the correction onto the still-pending action:
// fields the correction omits keep their staged values. Only the action
// always comes from the correction.
func mergeIntent(pending, correction *intent.ParsedIntent) *intent.ParsedIntent {
	merged := *pending
	merged.Action = correction.Action
	if correction.Direction != "" {
		merged.Direction = correction.Direction
	}
	if len(correction.Persons) > 0 {
		merged.Persons = correction.Persons
	}
	if correction.Amount != nil {
		merged.Amount = correction.Amount
	}
	if correction.Kind != nil {
		merged.Kind = correction.Kind
	}
	if correction.ExpectedPerCycle != nil {
		merged.ExpectedPerCycle = correction.ExpectedPerCycle
	}
	if correction.Note != "" {
		merged.Note = correction.Note
	}
	return &merged
}

func (o *Orchestrator) handleAwaitingDisambiguation(ctx context.Context, state *session.State, in Input) Output {
	// Typed "cancel"/"no" count as much as the button.
	switch effectiveSignal(in) {
	case SignalCancel, SignalNo:
		state.Reset()
		return Output{Reply: msgCancelled}
	}

	choiceID := in.ChoiceID
	if choiceID == "" {
		// Typed selection: accept a 1-based list position.
		if n, err := strconv.Atoi(strings.TrimSpace(in.Text)); err == nil && n >= 1 && n <= len(state.Choices) {
			choiceID = state.Choices[n-1].ID
		}
	}
	if choiceID == "" {
		return Output{Reply: msgPickOne, Choices: state.Choices}
	}

	var known bool
	for _, c := range state.Choices {
		if c.ID == choiceID {
			known = true
			break
		}
	}
	if !known {
		return Output{Reply: msgPickOne, Choices: state.Choices}
	}

	target, err := o.store.Get(ctx, choiceID)
	if errors.Is(err, ledger.ErrNotFound) {
		state.Reset()
		return Output{Reply: "That record no longer exists — maybe it was removed from the dashboard."}
	}
	if err != nil {
		log.Printf("Failed to load chosen obligation: %v", err)
		return Output{Reply: msgStoreFailure, Choices: state.Choices}
	}

	return o.execute(ctx, state, state.Pending, target)
}

func (o *Orchestrator) answerQuery(ctx context.Context, p *intent.ParsedIntent) string {
	if len(p.Persons) > 0 {
		name := p.Persons[0]
		matches, err := o.store.ByPerson(ctx, name, ledger.StatusActive)
		if err != nil {
			log.Printf("Query failed: %v", err)
			return msgStoreFailure
		}
		if len(matches) == 0 {
			return fmt.Sprintf("No pending obligations for %s.", name)
		}
		return ledger.PendingSummary(matches)
	}

	obligations, err := o.store.ByStatus(ctx, ledger.StatusActive)
	if err != nil {
		log.Printf("Query failed: %v", err)
		return msgStoreFailure
	}
	return ledger.PendingSummary(obligations)
}
