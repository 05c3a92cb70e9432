package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    log "github.com/sirupsen/logrus"

    "github.com/iliyamo/coaching-payments/internal/flow"
    "github.com/iliyamo/coaching-payments/internal/model"
    "github.com/iliyamo/coaching-payments/internal/payment"
)

// CheckoutHandler is the session initiator.  It validates the request for
// the selected flow, creates the pending transaction row, opens a hosted
// checkout session at the provider and persists the returned session id.
// The two store writes are independent round trips; see CreateSession for
// the failure semantics in between.
type CheckoutHandler struct {
    Store      TransactionStore
    Sessions   payment.SessionCreator
    Pricing    flow.Pricing
    Currency   string
    SuccessURL string
    CancelURL  string
}

// NewCheckoutHandler constructs a CheckoutHandler.  Store and Sessions
// must be non-nil.
func NewCheckoutHandler(store TransactionStore, sessions payment.SessionCreator, pricing flow.Pricing, currency, successURL, cancelURL string) *CheckoutHandler {
    if store == nil || sessions == nil {
        panic("nil dependency passed to NewCheckoutHandler")
    }
    return &CheckoutHandler{
        Store:      store,
        Sessions:   sessions,
        Pricing:    pricing,
        Currency:   currency,
        SuccessURL: successURL,
        CancelURL:  cancelURL,
    }
}

// CreateSession handles POST /v1/checkout/:flow.  On success it returns
// 200 with the checkout redirect URL.  Missing or malformed fields yield
// 400; store or provider failures yield 500.  A retry after a failure
// creates a fresh pending row rather than resuming the old one; the
// earlier row stays pending and is reconciled manually, an accepted gap
// at this volume.
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
    fc, ok := flow.ByName(c.Param("flow"))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown checkout flow"})
    }
    var req flow.Request
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    co, err := fc.Build(req, h.Pricing)
    if err != nil {
        // Every Build failure is caller input; the message names the field.
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    rec := &model.PendingTransaction{
        Name:           co.Name,
        Email:          co.Email,
        ServiceDetails: co.ServiceDetails,
        AmountCents:    co.AmountCents,
        IsTestBooking:  co.IsTestBooking,
    }
    // Each store round trip gets its own bounded context.  The provider
    // call in between runs on its own longer budget, so a context opened
    // here would already be spent by the time the session id is written.
    createCtx, cancelCreate := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancelCreate()
    if err := h.Store.Create(createCtx, fc.Table, rec); err != nil {
        log.WithError(err).WithField("flow", fc.Name).Error("checkout: create transaction failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create transaction"})
    }

    // The row id doubles as the provider reference: it exists before the
    // provider call, so the webhook can correlate even if the session-id
    // write below never lands.
    sess, err := h.Sessions.CreateSession(c.Request().Context(), payment.CreateSessionInput{
        Reference:   strconv.FormatUint(rec.ID, 10),
        Flow:        fc.Name,
        Description: co.Description,
        Currency:    h.Currency,
        AmountCents: co.AmountCents,
        SuccessURL:  h.SuccessURL,
        CancelURL:   h.CancelURL,
    })
    if err != nil {
        log.WithError(err).WithFields(log.Fields{
            "flow":           fc.Name,
            "transaction_id": rec.ID,
        }).Error("checkout: provider session creation failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment provider error"})
    }

    writeCtx, cancelWrite := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancelWrite()
    if err := h.Store.SetCheckoutSession(writeCtx, fc.Table, rec.ID, sess.ID); err != nil {
        // The session already exists at the provider; the row just lost
        // its pointer to it.  Known inconsistency window: the webhook
        // still finds the row via the reference, but the poller's
        // session_id lookup will not.
        log.WithError(err).WithFields(log.Fields{
            "flow":                fc.Name,
            "transaction_id":      rec.ID,
            "checkout_session_id": sess.ID,
        }).Error("checkout: persisting session id failed; session is live at provider")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not persist checkout session"})
    }

    return c.JSON(http.StatusOK, echo.Map{"url": sess.URL})
}
