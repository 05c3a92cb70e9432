package handler

import (
    "context"

    "github.com/iliyamo/coaching-payments/internal/model"
)

// TransactionStore is the slice of the repository the HTTP layer depends
// on.  Handlers receive it as a constructor argument instead of touching
// a package-level client, so tests can substitute an in-memory double
// and a long-lived process never hides shared state behind module scope.
// *repository.TransactionRepo satisfies it.
type TransactionStore interface {
    Create(ctx context.Context, table string, rec *model.PendingTransaction) error
    SetCheckoutSession(ctx context.Context, table string, id uint64, sessionID string) error
    MarkPaid(ctx context.Context, table string, id uint64) error
    GetByID(ctx context.Context, table string, id uint64) (*model.PendingTransaction, error)
    StatusByID(ctx context.Context, table string, id uint64) (string, error)
    StatusBySessionID(ctx context.Context, table string, sessionID string) (string, error)
}
