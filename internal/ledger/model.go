package ledger

import (
	"context"
	"errors"
	"time"
)

type Kind string

const (
	KindRecurring Kind = "recurring"
	KindOneTime   Kind = "one_time"
)

type Direction string

const (
	// DirectionOwesMe: the counterparty owes the user.
	DirectionOwesMe Direction = "owes_me"
	// DirectionIOwe: the user owes the counterparty.
	DirectionIOwe Direction = "i_owe"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusSettled Status = "settled"
)

var (
	ErrNotFound         = errors.New("obligation not found")
	ErrSettled          = errors.New("obligation is already settled")
	ErrExceedsRemaining = errors.New("amount exceeds remaining balance")
)

// Transaction is one recorded payment, embedded in exactly one Obligation.
type Transaction struct {
	Amount int64     `json:"amount"`
	PaidAt time.Time `json:"paid_at"`
	Note   string    `json:"note,omitempty"`
}

// Obligation is a single debt record between the user and one named person.
// Amounts are whole rupees. RemainingAmount only ever decreases, through
// transactions or an explicit settle; at zero the status flips to settled
// and the record is frozen.
type Obligation struct {
	ID               string        `json:"id"`
	GroupID          string        `json:"group_id,omitempty"`
	PersonName       string        `json:"person_name"`
	Kind             Kind          `json:"type"`
	Direction        Direction     `json:"direction"`
	TotalAmount      int64         `json:"total_amount"`
	ExpectedPerCycle *int64        `json:"expected_per_cycle,omitempty"`
	RemainingAmount  int64         `json:"remaining_amount"`
	Status           Status        `json:"status"`
	Note             string        `json:"note,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	Transactions     []Transaction `json:"transactions"`
}

// Update carries a partial update; nil fields are left untouched.
type Update struct {
	PersonName       *string `json:"person_name,omitempty"`
	TotalAmount      *int64  `json:"total_amount,omitempty"`
	ExpectedPerCycle *int64  `json:"expected_per_cycle,omitempty"`
	RemainingAmount  *int64  `json:"remaining_amount,omitempty"`
	Note             *string `json:"note,omitempty"`
}

// Store is the ledger persistence contract. All writes are atomic per
// record; there is no cross-record transactionality.
type Store interface {
	Create(ctx context.Context, ob *Obligation) error
	Get(ctx context.Context, id string) (*Obligation, error)
	// ByPerson matches person names by case-insensitive substring.
	ByPerson(ctx context.Context, name string, status Status) ([]Obligation, error)
	ByStatus(ctx context.Context, status Status) ([]Obligation, error)
	All(ctx context.Context) ([]Obligation, error)
	Update(ctx context.Context, id string, upd Update) (*Obligation, error)
	Delete(ctx context.Context, id string) error
	// AddTransaction appends a payment and decrements the remaining amount.
	// Fails with ErrExceedsRemaining when the amount is larger than the
	// current remaining balance, and with ErrSettled on a settled record.
	// Reaching zero flips the status to settled.
	AddTransaction(ctx context.Context, id string, txn Transaction) (*Obligation, error)
	// Settle appends a closing transaction for the full remaining amount
	// and marks the obligation settled.
	Settle(ctx context.Context, id string) (*Obligation, error)
}
