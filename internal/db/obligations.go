package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmehra/khatabot/internal/ledger"
)

const obligationColumns = `id, COALESCE(group_id::text, ''), person_name, kind, direction,
	total_amount, expected_per_cycle, remaining_amount, status, COALESCE(note, ''), transactions, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func scanObligation(row rowScanner) (*ledger.Obligation, error) {
	var ob ledger.Obligation
	var txns []byte
	err := row.Scan(
		&ob.ID, &ob.GroupID, &ob.PersonName, &ob.Kind, &ob.Direction,
		&ob.TotalAmount, &ob.ExpectedPerCycle, &ob.RemainingAmount,
		&ob.Status, &ob.Note, &txns, &ob.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(txns, &ob.Transactions); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return &ob, nil
}

// Create inserts a new obligation.
func (db *DB) Create(ctx context.Context, ob *ledger.Obligation) error {
	txns, err := json.Marshal(ob.Transactions)
	if err != nil {
		return fmt.Errorf("failed to encode transactions: %w", err)
	}

	var groupID *string
	if ob.GroupID != "" {
		groupID = &ob.GroupID
	}
	var note *string
	if ob.Note != "" {
		note = &ob.Note
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO obligations (id, group_id, person_name, kind, direction, total_amount, expected_per_cycle, remaining_amount, status, note, transactions)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
         RETURNING created_at`,
		ob.ID, groupID, ob.PersonName, ob.Kind, ob.Direction,
		ob.TotalAmount, ob.ExpectedPerCycle, ob.RemainingAmount, ob.Status, note, txns,
	).Scan(&ob.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert obligation: %w", err)
	}
	return nil
}

// Get returns a single obligation by id.
func (db *DB) Get(ctx context.Context, id string) (*ledger.Obligation, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+obligationColumns+` FROM obligations WHERE id = $1`, id)
	ob, err := scanObligation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ob, nil
}

// ByPerson returns obligations whose person name contains the given name,
// case-insensitively, filtered by status.
func (db *DB) ByPerson(ctx context.Context, name string, status ledger.Status) ([]ledger.Obligation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+obligationColumns+`
         FROM obligations
         WHERE position(lower($1) in lower(person_name)) > 0 AND status = $2
         ORDER BY created_at`,
		name, status)
	if err != nil {
		return nil, err
	}
	return collectObligations(rows)
}

// ByStatus returns all obligations with the given status.
func (db *DB) ByStatus(ctx context.Context, status ledger.Status) ([]ledger.Obligation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+obligationColumns+` FROM obligations WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, err
	}
	return collectObligations(rows)
}

// All returns every obligation regardless of status.
func (db *DB) All(ctx context.Context) ([]ledger.Obligation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+obligationColumns+` FROM obligations ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return collectObligations(rows)
}

func collectObligations(rows pgx.Rows) ([]ledger.Obligation, error) {
	defer rows.Close()
	var out []ledger.Obligation
	for rows.Next() {
		ob, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ob)
	}
	return out, rows.Err()
}

// Update applies only the non-nil fields of upd to the obligation.
func (db *DB) Update(ctx context.Context, id string, upd ledger.Update) (*ledger.Obligation, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.PersonName != nil {
		add("person_name", *upd.PersonName)
	}
	if upd.TotalAmount != nil {
		add("total_amount", *upd.TotalAmount)
	}
	if upd.ExpectedPerCycle != nil {
		add("expected_per_cycle", *upd.ExpectedPerCycle)
	}
	if upd.RemainingAmount != nil {
		add("remaining_amount", *upd.RemainingAmount)
	}
	if upd.Note != nil {
		add("note", *upd.Note)
	}
	if len(sets) == 0 {
		return db.Get(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE obligations SET %s WHERE id = $%d RETURNING `+obligationColumns,
		strings.Join(sets, ", "), len(args))

	row := db.pool.QueryRow(ctx, query, args...)
	ob, err := scanObligation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ob, nil
}

// Delete removes an obligation and its embedded transactions permanently.
func (db *DB) Delete(ctx context.Context, id string) error {
	ct, err := db.pool.Exec(ctx, `DELETE FROM obligations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// AddTransaction appends a payment to the obligation and decrements the
// remaining amount, settling the record when it reaches zero. The row is
// locked for the duration so concurrent settles cannot lose updates.
func (db *DB) AddTransaction(ctx context.Context, id string, txn ledger.Transaction) (*ledger.Obligation, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var remaining int64
	var status ledger.Status
	err = tx.QueryRow(ctx,
		`SELECT remaining_amount, status FROM obligations WHERE id = $1 FOR UPDATE`, id,
	).Scan(&remaining, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status == ledger.StatusSettled {
		return nil, ledger.ErrSettled
	}
	if txn.Amount > remaining {
		return nil, ledger.ErrExceedsRemaining
	}

	encoded, err := json.Marshal(txn)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	newRemaining := remaining - txn.Amount
	newStatus := status
	if newRemaining == 0 {
		newStatus = ledger.StatusSettled
	}

	row := tx.QueryRow(ctx,
		`UPDATE obligations
         SET transactions = transactions || $2::jsonb, remaining_amount = $3, status = $4
         WHERE id = $1
         RETURNING `+obligationColumns,
		id, encoded, newRemaining, newStatus)
	ob, err := scanObligation(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ob, nil
}

// Settle closes the obligation: a closing transaction is appended for any
// remaining amount and the status becomes settled.
func (db *DB) Settle(ctx context.Context, id string) (*ledger.Obligation, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var remaining int64
	var status ledger.Status
	err = tx.QueryRow(ctx,
		`SELECT remaining_amount, status FROM obligations WHERE id = $1 FOR UPDATE`, id,
	).Scan(&remaining, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status == ledger.StatusSettled {
		return nil, ledger.ErrSettled
	}

	appendTxns := []byte(`[]`)
	if remaining > 0 {
		closing := ledger.Transaction{Amount: remaining, PaidAt: nowUTC(), Note: "Full settlement"}
		if appendTxns, err = json.Marshal([]ledger.Transaction{closing}); err != nil {
			return nil, fmt.Errorf("failed to encode transaction: %w", err)
		}
	}

	row := tx.QueryRow(ctx,
		`UPDATE obligations
         SET transactions = transactions || $2::jsonb, remaining_amount = 0, status = $3
         WHERE id = $1
         RETURNING `+obligationColumns,
		id, appendTxns, ledger.StatusSettled)
	ob, err := scanObligation(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ob, nil
}
