package model

import "time"

// Payment status values for a pending transaction.  The lifecycle is
// deliberately small: a row is created as "pending" and moves to "paid"
// exactly once, driven by the payment provider's webhook.  There is no
// failed, cancelled or refunded state; abandoned checkouts simply stay
// pending and are reconciled manually.
const (
    PaymentStatusPending = "pending"
    PaymentStatusPaid    = "paid"
)

// PendingTransaction represents one attempted purchase, tracked from the
// moment a visitor submits the checkout form until the provider confirms
// payment.  The same shape backs both checkout flows (consultation
// bookings and coaching-tier requests); they live in separate tables
// selected through a flow configuration.
//
// Fields:
//  ID                – primary key, assigned by the store at creation.
//  Name, Email       – contact details captured with the request.
//  ServiceDetails    – flow-specific payload serialized as JSON
//                      (appointment date + duration, or request id + tier).
//  AmountCents       – computed checkout amount in minor currency units.
//  PaymentStatus     – "pending" or "paid".
//  CheckoutSessionID – provider session id, set once after the session is
//                      created and immutable afterwards (nullable).
//  IsTestBooking     – forces the checkout amount to zero when true.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type PendingTransaction struct {
    ID                uint64    // *_transactions.id
    Name              string    // *_transactions.name
    Email             string    // *_transactions.email
    ServiceDetails    string    // *_transactions.service_details
    AmountCents       int64     // *_transactions.amount_cents
    PaymentStatus     string    // *_transactions.payment_status
    CheckoutSessionID *string   // *_transactions.checkout_session_id (nullable)
    IsTestBooking     bool      // *_transactions.is_test_booking
    CreatedAt         time.Time // *_transactions.created_at
    UpdatedAt         time.Time // *_transactions.updated_at
}
