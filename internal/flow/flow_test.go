package flow

import (
    "errors"
    "strings"
    "testing"
)

func validBookingRequest() Request {
    return Request{
        Name:            "Jane",
        Email:           "jane@x.com",
        AppointmentDate: "2025-06-01T10:00:00Z",
        DurationMinutes: 60,
    }
}

func validCoachingRequest() Request {
    return Request{
        Name:      "Jane",
        Email:     "jane@x.com",
        RequestID: "req-42",
        Tier:      "standard",
    }
}

func TestBookingPriceIsDeterministic(t *testing.T) {
    p := Pricing{RateCentsPerMinute: 150}
    tests := []struct {
        name     string
        duration int64
        test     bool
        want     int64
    }{
        {name: "sixtyMinutes", duration: 60, test: false, want: 9000},
        {name: "thirtyMinutes", duration: 30, test: false, want: 4500},
        {name: "ninetyMinutes", duration: 90, test: false, want: 13500},
        {name: "testBookingForcesZero", duration: 60, test: true, want: 0},
        {name: "testBookingShortForcesZero", duration: 15, test: true, want: 0},
    }
    for _, tc := range tests {
        t.Run(tc.name, func(t *testing.T) {
            req := validBookingRequest()
            req.DurationMinutes = tc.duration
            req.IsTestBooking = tc.test
            co, err := Booking.Build(req, p)
            if err != nil {
                t.Fatalf("build: %v", err)
            }
            if co.AmountCents != tc.want {
                t.Fatalf("amount: got %d, want %d", co.AmountCents, tc.want)
            }
        })
    }
}

func TestCoachingPriceComesFromTierTable(t *testing.T) {
    tests := []struct {
        tier string
        test bool
        want int64
    }{
        {tier: "starter", want: 9900},
        {tier: "standard", want: 24900},
        {tier: "premium", want: 49900},
        {tier: "Premium", want: 49900}, // tier names are case-insensitive
        {tier: "standard", test: true, want: 0},
    }
    for _, tc := range tests {
        req := validCoachingRequest()
        req.Tier = tc.tier
        req.IsTestBooking = tc.test
        co, err := Coaching.Build(req, Pricing{})
        if err != nil {
            t.Fatalf("tier %q: %v", tc.tier, err)
        }
        if co.AmountCents != tc.want {
            t.Fatalf("tier %q: got %d, want %d", tc.tier, co.AmountCents, tc.want)
        }
    }
}

func TestTierAmount(t *testing.T) {
	if got, ok := TierAmount(" Premium "); !ok || got != 49900 {
		t.Fatalf("premium: got %d, %v", got, ok)
	}
	if _, ok := TierAmount("platinum"); ok {
		t.Fatal("unknown tier resolved")
	}
}

func TestCoachingUnknownTierIsRejected(t *testing.T) {
    req := validCoachingRequest()
    req.Tier = "platinum"
    if _, err := Coaching.Build(req, Pricing{}); !errors.Is(err, ErrInvalidRequest) {
        t.Fatalf("expected ErrInvalidRequest, got %v", err)
    }
}

func TestBookingValidation(t *testing.T) {
    p := Pricing{RateCentsPerMinute: 150}
    tests := []struct {
        name   string
        mutate func(*Request)
        field  string
    }{
        {name: "missingName", mutate: func(r *Request) { r.Name = "" }, field: "name"},
        {name: "missingEmail", mutate: func(r *Request) { r.Email = " " }, field: "email"},
        {name: "missingDate", mutate: func(r *Request) { r.AppointmentDate = "" }, field: "appointment_date"},
        {name: "malformedDate", mutate: func(r *Request) { r.AppointmentDate = "tomorrow" }, field: "appointment_date"},
        {name: "missingDuration", mutate: func(r *Request) { r.DurationMinutes = 0 }, field: "duration"},
        {name: "negativeDuration", mutate: func(r *Request) { r.DurationMinutes = -30 }, field: "duration"},
    }
    for _, tc := range tests {
        t.Run(tc.name, func(t *testing.T) {
            req := validBookingRequest()
            tc.mutate(&req)
            _, err := Booking.Build(req, p)
            if !errors.Is(err, ErrInvalidRequest) {
                t.Fatalf("expected ErrInvalidRequest, got %v", err)
            }
            if !strings.Contains(err.Error(), tc.field) {
                t.Fatalf("error %q does not name field %q", err, tc.field)
            }
        })
    }
}

func TestCoachingValidation(t *testing.T) {
    tests := []struct {
        name   string
        mutate func(*Request)
    }{
        {name: "missingRequestID", mutate: func(r *Request) { r.RequestID = "" }},
        {name: "missingEmail", mutate: func(r *Request) { r.Email = "" }},
        {name: "missingTier", mutate: func(r *Request) { r.Tier = "" }},
    }
    for _, tc := range tests {
        t.Run(tc.name, func(t *testing.T) {
            req := validCoachingRequest()
            tc.mutate(&req)
            if _, err := Coaching.Build(req, Pricing{}); !errors.Is(err, ErrInvalidRequest) {
                t.Fatalf("expected ErrInvalidRequest, got %v", err)
            }
        })
    }
}

func TestByName(t *testing.T) {
    if fc, ok := ByName("booking"); !ok || fc.Table != "booking_transactions" {
        t.Fatalf("booking lookup failed: %+v %v", fc, ok)
    }
    if fc, ok := ByName(" Coaching "); !ok || fc.Table != "coaching_transactions" {
        t.Fatalf("coaching lookup failed: %+v %v", fc, ok)
    }
    if _, ok := ByName("massage"); ok {
        t.Fatal("unexpected flow resolved")
    }
}

func TestServiceDetailsCarryFlowPayload(t *testing.T) {
    co, err := Booking.Build(validBookingRequest(), Pricing{RateCentsPerMinute: 150})
    if err != nil {
        t.Fatalf("build: %v", err)
    }
    for _, want := range []string{"appointment_date", "2025-06-01T10:00:00Z", "duration_minutes"} {
        if !strings.Contains(co.ServiceDetails, want) {
            t.Fatalf("service details %q missing %q", co.ServiceDetails, want)
        }
    }
}
