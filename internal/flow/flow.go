// Package flow describes the checkout flow variants supported by the
// service.  The site sells two things: one-off consultation bookings and
// coaching-tier subscriptions.  Both produce the same PendingTransaction
// shape and walk the same create-session/webhook/poll path, so instead of
// two copy-pasted handler sets each variant is captured as a Config value
// (table name, required fields, price rule, line-item description) and the
// handlers stay generic.
package flow

import (
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"
)

// ErrInvalidRequest is wrapped by every validation failure produced while
// building a checkout from caller input.  Handlers translate it into an
// HTTP 400 response.
var ErrInvalidRequest = errors.New("invalid request")

// Tier amounts in minor currency units for the coaching flow.  The set of
// tiers is fixed; an unknown tier is a validation error, not a zero price.
var tierAmountCents = map[string]int64{
    "starter":  9900,
    "standard": 24900,
    "premium":  49900,
}

// Pricing carries the deterministic inputs of the booking price rule.
// It comes from configuration so tests can pin the rate.
type Pricing struct {
    RateCentsPerMinute int64 // consultation price per minute, minor units
}

// Request is the superset of checkout fields across both flows, bound
// straight from the JSON body.  Each flow validates only the fields it
// requires and ignores the rest.
type Request struct {
    Name            string `json:"name"`
    Email           string `json:"email"`
    AppointmentDate string `json:"appointment_date"` // RFC3339, booking flow
    DurationMinutes int64  `json:"duration"`         // minutes, booking flow
    RequestID       string `json:"request_id"`       // coaching flow
    Tier            string `json:"tier"`             // coaching flow
    IsTestBooking   bool   `json:"is_test_booking"`
}

// Checkout is the validated, flow-agnostic result of applying a Config to
// a Request.  It holds everything the session initiator needs to persist
// the pending row and open the hosted checkout session.
type Checkout struct {
    Name           string
    Email          string
    Description    string // human-readable line item shown on the hosted page
    ServiceDetails string // JSON payload stored on the transaction row
    AmountCents    int64
    IsTestBooking  bool
}

// Config is one checkout flow variant.  Table names the transactions
// table backing the flow and must only ever reach SQL from one of the
// package-level Config values, never from request input.
type Config struct {
    Name  string
    Table string

    build func(req Request, p Pricing) (Checkout, error)
}

// Booking is the consultation-appointment flow: the visitor picks a date
// and a duration, and the price is duration times the per-minute rate.
var Booking = Config{
    Name:  "booking",
    Table: "booking_transactions",
    build: buildBooking,
}

// Coaching is the coaching-tier request flow: an existing request id is
// paired with a fixed-price tier.
var Coaching = Config{
    Name:  "coaching",
    Table: "coaching_transactions",
    build: buildCoaching,
}

// ByName resolves a flow from its URL segment.
func ByName(name string) (Config, bool) {
    switch strings.ToLower(strings.TrimSpace(name)) {
    case Booking.Name:
        return Booking, true
    case Coaching.Name:
        return Coaching, true
    }
    return Config{}, false
}

// Build validates the request against this flow and computes the checkout
// amount.  A true IsTestBooking forces the amount to zero regardless of
// the flow's price rule.  All failures wrap ErrInvalidRequest.
func (f Config) Build(req Request, p Pricing) (Checkout, error) {
    co, err := f.build(req, p)
    if err != nil {
        return Checkout{}, err
    }
    if req.IsTestBooking {
        co.AmountCents = 0
    }
    co.IsTestBooking = req.IsTestBooking
    return co, nil
}

func buildBooking(req Request, p Pricing) (Checkout, error) {
    name := strings.TrimSpace(req.Name)
    email := strings.TrimSpace(req.Email)
    if name == "" {
        return Checkout{}, fmt.Errorf("%w: name is required", ErrInvalidRequest)
    }
    if email == "" {
        return Checkout{}, fmt.Errorf("%w: email is required", ErrInvalidRequest)
    }
    if req.AppointmentDate == "" {
        return Checkout{}, fmt.Errorf("%w: appointment_date is required", ErrInvalidRequest)
    }
    if _, err := time.Parse(time.RFC3339, req.AppointmentDate); err != nil {
        return Checkout{}, fmt.Errorf("%w: appointment_date must be RFC3339", ErrInvalidRequest)
    }
    if req.DurationMinutes <= 0 {
        return Checkout{}, fmt.Errorf("%w: duration is required", ErrInvalidRequest)
    }
    details, err := json.Marshal(map[string]any{
        "appointment_date": req.AppointmentDate,
        "duration_minutes": req.DurationMinutes,
    })
    if err != nil {
        return Checkout{}, err
    }
    return Checkout{
        Name:           name,
        Email:          email,
        Description:    fmt.Sprintf("Consultation (%d min) on %s", req.DurationMinutes, req.AppointmentDate),
        ServiceDetails: string(details),
        AmountCents:    req.DurationMinutes * p.RateCentsPerMinute,
    }, nil
}

func buildCoaching(req Request, _ Pricing) (Checkout, error) {
    email := strings.TrimSpace(req.Email)
    if strings.TrimSpace(req.RequestID) == "" {
        return Checkout{}, fmt.Errorf("%w: request_id is required", ErrInvalidRequest)
    }
    if email == "" {
        return Checkout{}, fmt.Errorf("%w: email is required", ErrInvalidRequest)
    }
    tier := strings.ToLower(strings.TrimSpace(req.Tier))
    if tier == "" {
        return Checkout{}, fmt.Errorf("%w: tier is required", ErrInvalidRequest)
    }
    amount, ok := tierAmountCents[tier]
    if !ok {
        return Checkout{}, fmt.Errorf("%w: unknown tier %q", ErrInvalidRequest, req.Tier)
    }
    details, err := json.Marshal(map[string]any{
        "request_id": strings.TrimSpace(req.RequestID),
        "tier":       tier,
    })
    if err != nil {
        return Checkout{}, err
    }
    return Checkout{
        Name:           strings.TrimSpace(req.Name),
        Email:          email,
        Description:    fmt.Sprintf("Coaching tier %q", tier),
        ServiceDetails: string(details),
        AmountCents:    amount,
    }, nil
}

// TierAmount exposes the fixed tier price table for tests and admin
// tooling.  The second return reports whether the tier exists.
func TierAmount(tier string) (int64, bool) {
    amount, ok := tierAmountCents[strings.ToLower(strings.TrimSpace(tier))]
    return amount, ok
}
