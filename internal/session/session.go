// Package session holds per-conversation ephemeral state: the conversation
// phase, a bounded history of recent exchanges, and any staged action
// awaiting confirmation. Nothing here is persisted; a restart simply means
// the user re-asks.
package session

import (
	"sync"

	"github.com/dmehra/khatabot/internal/intent"
)

type Phase string

const (
	PhaseIdle                   Phase = "idle"
	PhaseAwaitingClarification  Phase = "awaiting_clarification"
	PhaseAwaitingConfirmation   Phase = "awaiting_confirmation"
	PhaseAwaitingDisambiguation Phase = "awaiting_disambiguation"
)

// maxHistory bounds the rolling history to the last 10 exchange pairs.
const maxHistory = 10

// Exchange is one (utterance, response) pair.
type Exchange struct {
	User      string
	Assistant string
}

// Choice is one selectable disambiguation candidate.
type Choice struct {
	ID    string
	Label string
}

// State is the mutable context of a single conversation. It is owned by
// exactly one conversation at a time and is not internally locked.
type State struct {
	ConvID        string
	Phase         Phase
	Pending       *intent.ParsedIntent
	PendingPrompt string
	Choices       []Choice

	// fixed-capacity ring of recent exchanges
	history [maxHistory]Exchange
	start   int
	count   int
}

// AppendExchange records one exchange, evicting the oldest at capacity.
func (s *State) AppendExchange(user, assistant string) {
	if s.count < maxHistory {
		s.history[(s.start+s.count)%maxHistory] = Exchange{User: user, Assistant: assistant}
		s.count++
		return
	}
	s.history[s.start] = Exchange{User: user, Assistant: assistant}
	s.start = (s.start + 1) % maxHistory
}

// History returns the retained exchanges, oldest first, flattened into
// model turns.
func (s *State) History() []intent.Turn {
	turns := make([]intent.Turn, 0, s.count*2)
	for i := 0; i < s.count; i++ {
		ex := s.history[(s.start+i)%maxHistory]
		turns = append(turns, intent.Turn{Role: "user", Content: ex.User})
		if ex.Assistant != "" {
			turns = append(turns, intent.Turn{Role: "assistant", Content: ex.Assistant})
		}
	}
	return turns
}

func (s *State) ClearHistory() {
	s.start, s.count = 0, 0
}

// Stage holds a parsed action and its confirmation prompt while the user
// decides.
func (s *State) Stage(pending *intent.ParsedIntent, prompt string) {
	s.Pending = pending
	s.PendingPrompt = prompt
	s.Phase = PhaseAwaitingConfirmation
	s.Choices = nil
}

// Reset returns the conversation to idle and drops everything ephemeral.
func (s *State) Reset() {
	s.Phase = PhaseIdle
	s.Pending = nil
	s.PendingPrompt = ""
	s.Choices = nil
	s.ClearHistory()
}

// Manager hands out conversation states keyed by conversation ID,
// creating them lazily on first use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*State
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*State)}
}

func (m *Manager) Get(convID string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.sessions[convID]
	if !ok {
		state = &State{ConvID: convID, Phase: PhaseIdle}
		m.sessions[convID] = state
	}
	return state
}
