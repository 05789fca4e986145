package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the read/write contract against the relational store. All
// queries are scoped by owner; writes to bills are targeted updates of the
// payment fields only.
type Repository interface {
	ListTransactionsSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]Transaction, error)
	ListExpensesAll(ctx context.Context, ownerID uuid.UUID) ([]Transaction, error)
	CategoryTotalsSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]CategoryTotal, error)
	MonthSummary(ctx context.Context, ownerID uuid.UUID, monthStart, monthEnd time.Time) (MonthSummary, error)
	ListActiveBills(ctx context.Context, ownerID uuid.UUID) ([]Bill, error)
	ListBillsDueWithin(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Bill, error)
	GetBill(ctx context.Context, ownerID, billID uuid.UUID) (*Bill, error)
	UpdateBillPayment(ctx context.Context, bill *Bill) error
	InsertTransaction(ctx context.Context, txn *Transaction) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// storeErr wraps a driver error so callers can match ErrDataUnavailable.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrDataUnavailable, err)
}

func (r *postgresRepository) ListTransactionsSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]Transaction, error) {
	query := `
		SELECT id, owner_id, bill_id, category, txn_type, amount_cents, occurred_at, description
		FROM transactions
		WHERE owner_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID, since)
	if err != nil {
		return nil, storeErr("listing transactions", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (r *postgresRepository) ListExpensesAll(ctx context.Context, ownerID uuid.UUID) ([]Transaction, error) {
	query := `
		SELECT id, owner_id, bill_id, category, txn_type, amount_cents, occurred_at, description
		FROM transactions
		WHERE owner_id = $1 AND txn_type = 'expense'
		ORDER BY occurred_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, storeErr("listing expenses", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]Transaction, error) {
	var txns []Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(&t.ID, &t.OwnerID, &t.BillID, &t.Category, &t.TxnType,
			&t.AmountCents, &t.OccurredAt, &t.Description)
		if err != nil {
			return nil, storeErr("scanning transaction row", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("reading transaction rows", err)
	}
	return txns, nil
}

func (r *postgresRepository) CategoryTotalsSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]CategoryTotal, error) {
	query := `
		SELECT category, SUM(amount_cents) AS total
		FROM transactions
		WHERE owner_id = $1 AND txn_type = 'expense' AND occurred_at >= $2
		GROUP BY category
		ORDER BY total DESC`

	rows, err := r.pool.Query(ctx, query, ownerID, since)
	if err != nil {
		return nil, storeErr("summing categories", err)
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.AmountCents); err != nil {
			return nil, storeErr("scanning category total", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// MonthSummary totals income and expenses inside [monthStart, monthEnd).
// The upper bound keeps post-dated future transactions out of the running
// month.
func (r *postgresRepository) MonthSummary(ctx context.Context, ownerID uuid.UUID, monthStart, monthEnd time.Time) (MonthSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN txn_type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN txn_type = 'expense' THEN amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE owner_id = $1 AND occurred_at >= $2 AND occurred_at < $3`

	var summary MonthSummary
	err := r.pool.QueryRow(ctx, query, ownerID, monthStart, monthEnd).Scan(&summary.IncomeCents, &summary.ExpenseCents)
	if err != nil {
		return MonthSummary{}, storeErr("summarizing month", err)
	}
	return summary, nil
}

func (r *postgresRepository) ListActiveBills(ctx context.Context, ownerID uuid.UUID) ([]Bill, error) {
	query := `
		SELECT id, owner_id, name, amount_cents, frequency, next_due, is_paid, last_paid, created_at
		FROM bills
		WHERE owner_id = $1 AND NOT (frequency = 'one_time' AND is_paid)
		ORDER BY next_due ASC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, storeErr("listing bills", err)
	}
	defer rows.Close()

	return scanBills(rows)
}

func (r *postgresRepository) ListBillsDueWithin(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]Bill, error) {
	query := `
		SELECT id, owner_id, name, amount_cents, frequency, next_due, is_paid, last_paid, created_at
		FROM bills
		WHERE owner_id = $1 AND NOT (frequency = 'one_time' AND is_paid)
			AND next_due >= $2 AND next_due <= $3
		ORDER BY next_due ASC`

	rows, err := r.pool.Query(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, storeErr("listing due bills", err)
	}
	defer rows.Close()

	return scanBills(rows)
}

func scanBills(rows pgx.Rows) ([]Bill, error) {
	var bills []Bill
	for rows.Next() {
		var b Bill
		err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.AmountCents, &b.Frequency,
			&b.NextDue, &b.IsPaid, &b.LastPaid, &b.CreatedAt)
		if err != nil {
			return nil, storeErr("scanning bill row", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("reading bill rows", err)
	}
	return bills, nil
}

func (r *postgresRepository) GetBill(ctx context.Context, ownerID, billID uuid.UUID) (*Bill, error) {
	query := `
		SELECT id, owner_id, name, amount_cents, frequency, next_due, is_paid, last_paid, created_at
		FROM bills
		WHERE id = $1 AND owner_id = $2`

	b := &Bill{}
	err := r.pool.QueryRow(ctx, query, billID, ownerID).Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.AmountCents, &b.Frequency,
		&b.NextDue, &b.IsPaid, &b.LastPaid, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeErr("querying bill", err)
	}
	return b, nil
}

func (r *postgresRepository) UpdateBillPayment(ctx context.Context, bill *Bill) error {
	query := `
		UPDATE bills
		SET is_paid = $3, last_paid = $4, next_due = $5
		WHERE id = $1 AND owner_id = $2`

	result, err := r.pool.Exec(ctx, query,
		bill.ID, bill.OwnerID, bill.IsPaid, bill.LastPaid, bill.NextDue)
	if err != nil {
		return storeErr("updating bill payment", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) InsertTransaction(ctx context.Context, txn *Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	query := `
		INSERT INTO transactions (id, owner_id, bill_id, category, txn_type, amount_cents, occurred_at, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		txn.ID, txn.OwnerID, txn.BillID, txn.Category, txn.TxnType,
		txn.AmountCents, txn.OccurredAt, txn.Description)
	if err != nil {
		return storeErr("inserting transaction", err)
	}
	return nil
}
