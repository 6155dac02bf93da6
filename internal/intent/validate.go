package intent

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dmehra/khatabot/internal/ledger"
)

// Raw wire shapes. Amounts arrive as JSON numbers and may be fractional;
// they are rounded to whole rupees during validation.
type rawResponse struct {
	Parsed               *rawIntent `json:"parsed"`
	ConfirmationMessage  string     `json:"confirmation_message"`
	RequiresConfirmation bool       `json:"requires_confirmation"`
}

type rawIntent struct {
	Action             string   `json:"action"`
	Persons            []string `json:"persons"`
	Direction          string   `json:"direction"`
	Amount             *float64 `json:"amount"`
	ObligationType     *string  `json:"obligation_type"`
	ExpectedPerCycle   *float64 `json:"expected_per_cycle"`
	Note               *string  `json:"note"`
	IsAmbiguous        bool     `json:"is_ambiguous"`
	ClarifyingQuestion *string  `json:"clarifying_question"`
}

// ParseResponse validates a raw model completion into a Result. Unknown
// actions, bad enumerations and negative amounts all fail closed with
// ErrParseFailure — there is no guessed default.
func ParseResponse(raw string) (*Result, error) {
	raw = stripCodeFences(strings.TrimSpace(raw))

	var resp rawResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrParseFailure, err)
	}
	if resp.ConfirmationMessage == "" {
		return nil, fmt.Errorf("%w: missing confirmation_message", ErrParseFailure)
	}

	result := &Result{
		Message:              resp.ConfirmationMessage,
		RequiresConfirmation: resp.RequiresConfirmation,
	}
	if resp.Parsed == nil {
		return nil, fmt.Errorf("%w: missing parsed intent", ErrParseFailure)
	}

	parsed, err := validateIntent(resp.Parsed)
	if err != nil {
		return nil, err
	}
	result.Parsed = parsed
	return result, nil
}

func validateIntent(raw *rawIntent) (*ParsedIntent, error) {
	action := Action(raw.Action)
	switch action {
	case ActionAdd, ActionSettle, ActionQuery, ActionEdit, ActionDelete, ActionChitchat, ActionOffTopic:
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrParseFailure, raw.Action)
	}

	// An omitted direction stays empty so a correction merge can tell
	// "not stated" from "owes_me"; executors default it at use.
	direction := ledger.Direction(raw.Direction)
	switch direction {
	case ledger.DirectionOwesMe, ledger.DirectionIOwe, "":
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ErrParseFailure, raw.Direction)
	}

	parsed := &ParsedIntent{
		Action:      action,
		Direction:   direction,
		IsAmbiguous: raw.IsAmbiguous,
	}

	for _, person := range raw.Persons {
		if p := strings.TrimSpace(person); p != "" {
			parsed.Persons = append(parsed.Persons, p)
		}
	}

	var err error
	if parsed.Amount, err = rupees("amount", raw.Amount); err != nil {
		return nil, err
	}
	if parsed.ExpectedPerCycle, err = rupees("expected_per_cycle", raw.ExpectedPerCycle); err != nil {
		return nil, err
	}

	if raw.ObligationType != nil && *raw.ObligationType != "" {
		kind := ledger.Kind(*raw.ObligationType)
		if kind != ledger.KindRecurring && kind != ledger.KindOneTime {
			return nil, fmt.Errorf("%w: unknown obligation_type %q", ErrParseFailure, *raw.ObligationType)
		}
		parsed.Kind = &kind
	}
	if raw.Note != nil {
		parsed.Note = strings.TrimSpace(*raw.Note)
	}
	if raw.ClarifyingQuestion != nil {
		parsed.ClarifyingQuestion = strings.TrimSpace(*raw.ClarifyingQuestion)
	}
	return parsed, nil
}

func rupees(field string, value *float64) (*int64, error) {
	if value == nil {
		return nil, nil
	}
	if *value < 0 || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return nil, fmt.Errorf("%w: invalid %s %v", ErrParseFailure, field, *value)
	}
	amount := int64(math.Round(*value))
	return &amount, nil
}

// stripCodeFences removes markdown fences some models wrap around JSON.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
