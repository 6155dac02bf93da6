// Package intent turns free-form user messages into structured ledger
// actions via an external language model. Model output is untrusted and is
// schema-validated before anything acts on it.
package intent

import (
	"context"
	"errors"

	"github.com/dmehra/khatabot/internal/ledger"
)

// ErrParseFailure covers every way the model can fail us: transport errors,
// timeouts, non-JSON output, or output outside the allowed schema. Callers
// must treat it as "could not understand", never as a default action.
var ErrParseFailure = errors.New("could not parse intent")

type Action string

const (
	ActionAdd      Action = "add"
	ActionSettle   Action = "settle"
	ActionQuery    Action = "query"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionChitchat Action = "chitchat"
	ActionOffTopic Action = "off_topic"
)

// Mutating reports whether the action changes the ledger and therefore
// requires explicit confirmation.
func (a Action) Mutating() bool {
	switch a {
	case ActionAdd, ActionSettle, ActionEdit, ActionDelete:
		return true
	}
	return false
}

// ParsedIntent is the structured form of one utterance. It lives for a
// single turn, or in session state while awaiting confirmation.
type ParsedIntent struct {
	Action             Action           `json:"action"`
	Persons            []string         `json:"persons"`
	Direction          ledger.Direction `json:"direction"`
	Amount             *int64           `json:"amount,omitempty"`
	Kind               *ledger.Kind     `json:"obligation_type,omitempty"`
	ExpectedPerCycle   *int64           `json:"expected_per_cycle,omitempty"`
	Note               string           `json:"note,omitempty"`
	IsAmbiguous        bool             `json:"is_ambiguous"`
	ClarifyingQuestion string           `json:"clarifying_question,omitempty"`
}

// Result is one validated model response.
type Result struct {
	Parsed               *ParsedIntent `json:"parsed"`
	Message              string        `json:"confirmation_message"`
	RequiresConfirmation bool          `json:"requires_confirmation"`
}

// Turn is one prior (role, content) exchange supplied as model context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Extractor is implemented by the production client and by test fakes.
type Extractor interface {
	Extract(ctx context.Context, utterance string, snapshot []ledger.Obligation, history []Turn) (*Result, error)
}
