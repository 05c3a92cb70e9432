package handler

import (
    "context"
    "encoding/json"
    "io"
    "net/http"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    log "github.com/sirupsen/logrus"
    stripe "github.com/stripe/stripe-go/v79"
    "github.com/stripe/stripe-go/v79/webhook"

    "github.com/iliyamo/coaching-payments/internal/flow"
    "github.com/iliyamo/coaching-payments/internal/queue"
)

// maxWebhookBody caps how much of the provider's request body is read.
// Stripe events are small; anything larger is not a legitimate event.
const maxWebhookBody = 1 << 20

// WebhookHandler receives server-to-server payment events from Stripe.
// The provider retries delivery on any non-2xx response, so once an
// event's signature has been verified and its payload parsed, the
// handler always acknowledges with 200, including when the store update
// fails.  Those failures are logged at error level for manual
// reconciliation; answering 5xx instead would make Stripe redeliver the
// same event indefinitely without fixing anything.
type WebhookHandler struct {
    Store         TransactionStore
    SigningSecret string
    Currency      string

    // Publish sends a confirmation event to the broker after a
    // successful status update.  Injected so tests can observe it;
    // wired to queue_publisher.PublishPaymentConfirmed in main.
    // Publish errors are logged, never surfaced.
    Publish func(ctx context.Context, ev queue.PaymentConfirmedEvent) error
}

// NewWebhookHandler constructs a WebhookHandler.  publish may be nil, in
// which case no broker event is emitted.
func NewWebhookHandler(store TransactionStore, signingSecret, currency string, publish func(ctx context.Context, ev queue.PaymentConfirmedEvent) error) *WebhookHandler {
    if store == nil {
        panic("nil store passed to NewWebhookHandler")
    }
    return &WebhookHandler{Store: store, SigningSecret: signingSecret, Currency: currency, Publish: publish}
}

// Receive handles POST /v1/payments/webhook.  Signature verification
// runs over the exact bytes Stripe sent; the body must not be re-parsed
// or re-serialized beforehand.  Verification is delegated to the Stripe
// webhook library, which compares digests in constant time; never
// reimplement that with string equality.  Neither the signing secret nor
// the expected signature appears in any log or response.
func (h *WebhookHandler) Receive(c echo.Context) error {
    body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
    }

    event, err := webhook.ConstructEvent(body, c.Request().Header.Get("Stripe-Signature"), h.SigningSecret)
    if err != nil {
        // Invalid or missing signature, or unparsable payload.  No state
        // was touched; Stripe will retry with a fresh signature.
        log.WithField("remote_ip", c.RealIP()).Warn("webhook: signature verification failed")
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
    }

    // Only completed checkouts carry a state transition.  Every other
    // event type is acknowledged and ignored.
    if event.Type != stripe.EventTypeCheckoutSessionCompleted {
        return c.JSON(http.StatusOK, echo.Map{"received": true})
    }

    var session stripe.CheckoutSession
    if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
        log.WithError(err).WithField("event_id", event.ID).Error("webhook: malformed checkout session payload")
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event payload"})
    }

    h.applyCompletedCheckout(c.Request().Context(), event.ID, &session)
    return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// applyCompletedCheckout resolves the flow and reference from the
// session and marks the matching transaction paid.  Correlation uses the
// client_reference_id attached at session creation (the transaction's
// primary key), never the stored checkout_session_id, because the
// session-id write in the initiator can fail after the session already
// exists at the provider.  Marking paid is idempotent, so Stripe's
// at-least-once delivery needs no further guarding.  All failures are
// logged and swallowed; see the type comment for why.
func (h *WebhookHandler) applyCompletedCheckout(ctx context.Context, eventID string, session *stripe.CheckoutSession) {
    logCtx := log.WithFields(log.Fields{
        "event_id":            eventID,
        "checkout_session_id": session.ID,
        "reference":           session.ClientReferenceID,
    })

    fc, ok := flowFromMetadata(session.Metadata)
    if !ok {
        logCtx.Error("webhook: event carries no usable flow metadata; cannot correlate")
        return
    }
    id, err := strconv.ParseUint(session.ClientReferenceID, 10, 64)
    if err != nil || id == 0 {
        logCtx.Error("webhook: event carries no usable reference; cannot correlate")
        return
    }

    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    if err := h.Store.MarkPaid(ctx, fc.Table, id); err != nil {
        logCtx.WithError(err).WithField("flow", fc.Name).Error("webhook: marking transaction paid failed; needs manual reconciliation")
        return
    }
    logCtx.WithFields(log.Fields{"flow": fc.Name, "transaction_id": id}).Info("webhook: transaction marked paid")

    if h.Publish == nil {
        return
    }
    rec, err := h.Store.GetByID(ctx, fc.Table, id)
    if err != nil {
        logCtx.WithError(err).Warn("webhook: loading transaction for confirmation event failed")
        return
    }
    sessionID := session.ID
    if rec.CheckoutSessionID != nil {
        sessionID = *rec.CheckoutSessionID
    }
    ev := queue.PaymentConfirmedEvent{
        EventID:           uuid.NewString(),
        Flow:              fc.Name,
        TransactionID:     rec.ID,
        Name:              rec.Name,
        Email:             rec.Email,
        AmountCents:       rec.AmountCents,
        Currency:          h.Currency,
        CheckoutSessionID: sessionID,
        IsTestBooking:     rec.IsTestBooking,
        ConfirmedAt:       time.Now().UTC().Format(time.RFC3339),
    }
    if err := h.Publish(ctx, ev); err != nil {
        logCtx.WithError(err).Warn("webhook: publishing confirmation event failed")
    }
}

// flowFromMetadata resolves the flow the session was created under from
// the metadata attached at session-creation time.
func flowFromMetadata(md map[string]string) (flow.Config, bool) {
    if md == nil {
        return flow.Config{}, false
    }
    return flow.ByName(md["flow"])
}
