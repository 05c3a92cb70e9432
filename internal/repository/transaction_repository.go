package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/coaching-payments/internal/model"
)

// TransactionRepo provides CRUD operations for pending transactions.
// Both checkout flows share this repository; the caller passes the table
// name from its flow configuration.  Table names therefore never come
// from request input.  All timestamp fields are stored in UTC.
type TransactionRepo struct {
    db *sql.DB
}

// NewTransactionRepo returns a new TransactionRepo bound to the given database.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// DB exposes the underlying handle for callers that manage their own
// transactions.
func (r *TransactionRepo) DB() *sql.DB { return r.db }

// Create inserts a new pending transaction and populates the generated ID
// on the provided record.  The row starts with payment_status 'pending'
// and no checkout session id; the session id is written separately once
// the provider has responded.  The two writes are deliberately not one
// transaction: a crash in between leaves a pending row with no session
// id, which is why webhook correlation uses the row id instead.
func (r *TransactionRepo) Create(ctx context.Context, table string, rec *model.PendingTransaction) error {
    q := fmt.Sprintf(`INSERT INTO %s (name, email, service_details, amount_cents, payment_status, is_test_booking) VALUES (?, ?, ?, ?, 'pending', ?)`, table)
    result, err := r.db.ExecContext(ctx, q, rec.Name, rec.Email, rec.ServiceDetails, rec.AmountCents, rec.IsTestBooking)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    rec.PaymentStatus = model.PaymentStatusPending
    // Query back the row to populate timestamps and defaults.
    sel := fmt.Sprintf(`SELECT created_at, updated_at FROM %s WHERE id = ?`, table)
    return r.db.QueryRowContext(ctx, sel, rec.ID).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

// SetCheckoutSession persists the provider's checkout session id onto a
// transaction.  The id is immutable once set: the update only matches
// rows where checkout_session_id is still NULL.  When nothing matches,
// the row either does not exist (ErrTransactionNotFound) or already
// carries a session id (ErrSessionAlreadySet).
func (r *TransactionRepo) SetCheckoutSession(ctx context.Context, table string, id uint64, sessionID string) error {
    q := fmt.Sprintf(`UPDATE %s SET checkout_session_id = ? WHERE id = ? AND checkout_session_id IS NULL`, table)
    result, err := r.db.ExecContext(ctx, q, sessionID, id)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    exists, err := r.exists(ctx, table, id)
    if err != nil {
        return err
    }
    if !exists {
        return ErrTransactionNotFound
    }
    return ErrSessionAlreadySet
}

// MarkPaid transitions a transaction to 'paid'.  The write is an
// unconditional set to the single terminal value, so applying it twice
// is harmless: the second call matches the row, changes nothing and
// returns nil.  ErrTransactionNotFound is returned when no row with the
// given id exists.
func (r *TransactionRepo) MarkPaid(ctx context.Context, table string, id uint64) error {
    q := fmt.Sprintf(`UPDATE %s SET payment_status = 'paid' WHERE id = ?`, table)
    result, err := r.db.ExecContext(ctx, q, id)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    // MySQL reports zero affected rows both for a missing row and for a
    // row that is already paid; only the former is an error.
    exists, err := r.exists(ctx, table, id)
    if err != nil {
        return err
    }
    if !exists {
        return ErrTransactionNotFound
    }
    return nil
}

// GetByID returns a full transaction row, or ErrTransactionNotFound.
func (r *TransactionRepo) GetByID(ctx context.Context, table string, id uint64) (*model.PendingTransaction, error) {
    q := fmt.Sprintf(`SELECT id, name, email, service_details, amount_cents, payment_status, checkout_session_id, is_test_booking, created_at, updated_at FROM %s WHERE id = ?`, table)
    return r.scanRecord(r.db.QueryRowContext(ctx, q, id))
}

// StatusByID returns only the payment status for a transaction id.  It
// backs the browser-facing status poller and performs a single read.
func (r *TransactionRepo) StatusByID(ctx context.Context, table string, id uint64) (string, error) {
    q := fmt.Sprintf(`SELECT payment_status FROM %s WHERE id = ?`, table)
    var status string
    err := r.db.QueryRowContext(ctx, q, id).Scan(&status)
    if err == sql.ErrNoRows {
        return "", ErrTransactionNotFound
    }
    if err != nil {
        return "", err
    }
    return status, nil
}

// StatusBySessionID returns the payment status for a checkout session id.
// Rows whose session-id write failed are unreachable through this path;
// the poller also accepts the transaction id for that reason.
func (r *TransactionRepo) StatusBySessionID(ctx context.Context, table string, sessionID string) (string, error) {
    q := fmt.Sprintf(`SELECT payment_status FROM %s WHERE checkout_session_id = ?`, table)
    var status string
    err := r.db.QueryRowContext(ctx, q, sessionID).Scan(&status)
    if err == sql.ErrNoRows {
        return "", ErrTransactionNotFound
    }
    if err != nil {
        return "", err
    }
    return status, nil
}

func (r *TransactionRepo) exists(ctx context.Context, table string, id uint64) (bool, error) {
    q := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ?`, table)
    var one int
    err := r.db.QueryRowContext(ctx, q, id).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

func (r *TransactionRepo) scanRecord(row *sql.Row) (*model.PendingTransaction, error) {
    var rec model.PendingTransaction
    var sessionID sql.NullString
    err := row.Scan(
        &rec.ID, &rec.Name, &rec.Email, &rec.ServiceDetails, &rec.AmountCents,
        &rec.PaymentStatus, &sessionID, &rec.IsTestBooking, &rec.CreatedAt, &rec.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrTransactionNotFound
    }
    if err != nil {
        return nil, err
    }
    if sessionID.Valid {
        sid := sessionID.String
        rec.CheckoutSessionID = &sid
    }
    return &rec, nil
}
