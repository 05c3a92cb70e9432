// Package payment wraps the hosted checkout provider.  Handlers depend on
// the SessionCreator interface so tests can substitute a double without a
// network; the only production implementation talks to Stripe.
package payment

import (
    "context"
    "fmt"
    "net/http"
    "time"

    stripe "github.com/stripe/stripe-go/v79"
    "github.com/stripe/stripe-go/v79/client"
)

// metadataFlowKey names the session metadata entry carrying the checkout
// flow, echoed back verbatim in webhook events so the receiver knows
// which transactions table to update.
const metadataFlowKey = "flow"

// CreateSessionInput carries everything needed to open one hosted
// checkout session.  Reference is the transaction's primary key,
// stringified; the provider echoes it back as client_reference_id in the
// completed-checkout webhook and it is the only correlation key the
// receiver trusts.
type CreateSessionInput struct {
    Reference   string // transaction id, set before the provider call
    Flow        string // flow name, travels in session metadata
    Description string // human-readable line item
    Currency    string // lowercase ISO 4217 code, fixed system-wide
    AmountCents int64  // minor units; zero for test bookings
    SuccessURL  string
    CancelURL   string
}

// Session is the subset of the provider's checkout session the handlers
// need: the opaque id persisted on the transaction and the redirect URL
// returned to the browser.
type Session struct {
    ID  string
    URL string
}

// SessionCreator opens hosted checkout sessions.
type SessionCreator interface {
    CreateSession(ctx context.Context, in CreateSessionInput) (Session, error)
}

// StripeClient implements SessionCreator against the Stripe API.
type StripeClient struct {
    api *client.API
}

// NewStripeClient builds a Stripe client with a bounded HTTP timeout.
// There is no automatic retry: retrying a timed-out session creation
// blindly could open a second live checkout session for the same
// booking, so the error is surfaced and the caller restarts the flow.
func NewStripeClient(secretKey string, timeout time.Duration) *StripeClient {
    api := &client.API{}
    api.Init(secretKey, stripe.NewBackends(&http.Client{Timeout: timeout}))
    return &StripeClient{api: api}
}

// CreateSession opens a payment-mode checkout session with a single line
// item.  A deterministic idempotency key derived from the flow and the
// transaction id is attached so that a caller-driven retry after a
// timeout is deduplicated at the provider instead of producing two live
// sessions.
func (c *StripeClient) CreateSession(ctx context.Context, in CreateSessionInput) (Session, error) {
    params := &stripe.CheckoutSessionParams{
        Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
        SuccessURL:        stripe.String(in.SuccessURL),
        CancelURL:         stripe.String(in.CancelURL),
        ClientReferenceID: stripe.String(in.Reference),
        LineItems: []*stripe.CheckoutSessionLineItemParams{
            {
                PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
                    Currency:   stripe.String(in.Currency),
                    UnitAmount: stripe.Int64(in.AmountCents),
                    ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
                        Name: stripe.String(in.Description),
                    },
                },
                Quantity: stripe.Int64(1),
            },
        },
    }
    params.Context = ctx
    params.AddMetadata(metadataFlowKey, in.Flow)
    params.SetIdempotencyKey(fmt.Sprintf("checkout-%s-%s", in.Flow, in.Reference))

    s, err := c.api.CheckoutSessions.New(params)
    if err != nil {
        return Session{}, fmt.Errorf("create checkout session: %w", err)
    }
    return Session{ID: s.ID, URL: s.URL}, nil
}
