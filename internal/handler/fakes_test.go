package handler

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/coaching-payments/internal/model"
    "github.com/iliyamo/coaching-payments/internal/payment"
    "github.com/iliyamo/coaching-payments/internal/repository"
)

// fakeStore is an in-memory TransactionStore used across the handler
// tests.  Failure toggles let individual tests exercise the error paths
// without a database.
type fakeStore struct {
    rows   map[string]map[uint64]*model.PendingTransaction
    nextID uint64

    failCreate     bool
    failSetSession bool
    failMarkPaid   bool
}

func newFakeStore() *fakeStore {
    return &fakeStore{rows: map[string]map[uint64]*model.PendingTransaction{}}
}

func (s *fakeStore) table(name string) map[uint64]*model.PendingTransaction {
    if s.rows[name] == nil {
        s.rows[name] = map[uint64]*model.PendingTransaction{}
    }
    return s.rows[name]
}

func (s *fakeStore) Create(_ context.Context, table string, rec *model.PendingTransaction) error {
    if s.failCreate {
        return errors.New("store unavailable")
    }
    s.nextID++
    rec.ID = s.nextID
    rec.PaymentStatus = "pending"
    rec.CreatedAt = time.Now().UTC()
    rec.UpdatedAt = rec.CreatedAt
    stored := *rec
    s.table(table)[rec.ID] = &stored
    return nil
}

func (s *fakeStore) SetCheckoutSession(_ context.Context, table string, id uint64, sessionID string) error {
    if s.failSetSession {
        return errors.New("store unavailable")
    }
    rec, ok := s.table(table)[id]
    if !ok {
        return repository.ErrTransactionNotFound
    }
    if rec.CheckoutSessionID != nil {
        return repository.ErrSessionAlreadySet
    }
    sid := sessionID
    rec.CheckoutSessionID = &sid
    return nil
}

func (s *fakeStore) MarkPaid(_ context.Context, table string, id uint64) error {
    if s.failMarkPaid {
        return errors.New("store unavailable")
    }
    rec, ok := s.table(table)[id]
    if !ok {
        return repository.ErrTransactionNotFound
    }
    rec.PaymentStatus = "paid"
    return nil
}

func (s *fakeStore) GetByID(_ context.Context, table string, id uint64) (*model.PendingTransaction, error) {
    rec, ok := s.table(table)[id]
    if !ok {
        return nil, repository.ErrTransactionNotFound
    }
    cp := *rec
    return &cp, nil
}

func (s *fakeStore) StatusByID(_ context.Context, table string, id uint64) (string, error) {
    rec, ok := s.table(table)[id]
    if !ok {
        return "", repository.ErrTransactionNotFound
    }
    return rec.PaymentStatus, nil
}

func (s *fakeStore) StatusBySessionID(_ context.Context, table string, sessionID string) (string, error) {
    for _, rec := range s.table(table) {
        if rec.CheckoutSessionID != nil && *rec.CheckoutSessionID == sessionID {
            return rec.PaymentStatus, nil
        }
    }
    return "", repository.ErrTransactionNotFound
}

// fakeSessions records checkout sessions instead of calling the provider.
type fakeSessions struct {
    created []payment.CreateSessionInput
    fail    bool
}

func (f *fakeSessions) CreateSession(_ context.Context, in payment.CreateSessionInput) (payment.Session, error) {
    if f.fail {
        return payment.Session{}, errors.New("provider timeout")
    }
    f.created = append(f.created, in)
    return payment.Session{
        ID:  "cs_test_" + in.Reference,
        URL: "https://checkout.stripe.test/pay/cs_test_" + in.Reference,
    }, nil
}
