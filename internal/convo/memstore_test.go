package convo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dmehra/khatabot/internal/ledger"
)

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory ledger.Store with the same semantics as the
// Postgres implementation, plus a switch to simulate outages.
type memStore struct {
	mu     sync.Mutex
	items  map[string]*ledger.Obligation
	order  []string
	broken bool
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]*ledger.Obligation)}
}

func (m *memStore) Create(_ context.Context, ob *ledger.Obligation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return errStoreDown
	}
	clone := *ob
	clone.CreatedAt = time.Now().UTC()
	m.items[ob.ID] = &clone
	m.order = append(m.order, ob.ID)
	ob.CreatedAt = clone.CreatedAt
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*ledger.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return nil, errStoreDown
	}
	ob, ok := m.items[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	clone := *ob
	return &clone, nil
}

func (m *memStore) ByPerson(_ context.Context, name string, status ledger.Status) ([]ledger.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return nil, errStoreDown
	}
	var out []ledger.Obligation
	for _, id := range m.order {
		ob := m.items[id]
		if ob.Status == status && strings.Contains(strings.ToLower(ob.PersonName), strings.ToLower(name)) {
			out = append(out, *ob)
		}
	}
	return out, nil
}

func (m *memStore) ByStatus(_ context.Context, status ledger.Status) ([]ledger.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return nil, errStoreDown
	}
	var out []ledger.Obligation
	for _, id := range m.order {
		if ob := m.items[id]; ob.Status == status {
			out = append(out, *ob)
		}
	}
	return out, nil
}

func (m *memStore) All(_ context.Context) ([]ledger.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return nil, errStoreDown
	}
	var out []ledger.Obligation
	for _, id := range m.order {
		out = append(out, *m.items[id])
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, id string, upd ledger.Update) (*ledger.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return nil, errStoreDown
	}
	ob, ok := m.items[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if upd.PersonName != nil {
		ob.PersonName = *upd.PersonName
	}
	if upd.TotalAmount != nil {
		ob.TotalAmount = *upd.TotalAmount
	}
	if upd.ExpectedPerCycle != nil {
		ob.ExpectedPerCycle = upd.ExpectedPerCycle
	}
	if upd.RemainingAmount != nil {
		ob.RemainingAmount = *upd.RemainingAmount
	}
	if upd.Note != nil {
		ob.Note = *upd.Note
	}
	clone := *ob
	return &clone, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return errStoreDown
	}
	if _, ok := m.items[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(m.items, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStore) AddTransaction(_ context.Context, id string, txn ledger.Transaction) (*ledger.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return nil, errStoreDown
	}
	ob, ok := m.items[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if ob.Status == ledger.StatusSettled {
		return nil, ledger.ErrSettled
	}
	if txn.Amount > ob.RemainingAmount {
		return nil, ledger.ErrExceedsRemaining
	}
	ob.Transactions = append(ob.Transactions, txn)
	ob.RemainingAmount -= txn.Amount
	if ob.RemainingAmount == 0 {
		ob.Status = ledger.StatusSettled
	}
	clone := *ob
	return &clone, nil
}

func (m *memStore) Settle(_ context.Context, id string) (*ledger.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return nil, errStoreDown
	}
	ob, ok := m.items[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if ob.Status == ledger.StatusSettled {
		return nil, ledger.ErrSettled
	}
	if ob.RemainingAmount > 0 {
		ob.Transactions = append(ob.Transactions, ledger.Transaction{
			Amount: ob.RemainingAmount,
			PaidAt: time.Now().UTC(),
			Note:   "Full settlement",
		})
	}
	ob.RemainingAmount = 0
	ob.Status = ledger.StatusSettled
	clone := *ob
	return &clone, nil
}
