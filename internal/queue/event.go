// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentConfirmedEvent is published when a webhook marks a transaction
// paid.  It contains enough information for downstream consumers to log
// or notify without querying the primary database.  EventID is a fresh
// UUID per publish so consumers can deduplicate redeliveries.
type PaymentConfirmedEvent struct {
    EventID           string `json:"event_id"`
    Flow              string `json:"flow"`
    TransactionID     uint64 `json:"transaction_id"`
    Name              string `json:"name"`
    Email             string `json:"email"`
    AmountCents       int64  `json:"amount_cents"`
    Currency          string `json:"currency"`
    CheckoutSessionID string `json:"checkout_session_id"`
    IsTestBooking     bool   `json:"is_test_booking"`
    ConfirmedAt       string `json:"confirmed_at"`
}
