package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coaching-payments/internal/flow"
    "github.com/iliyamo/coaching-payments/internal/repository"
)

// StatusHandler is the read-only poller the browser hits after the
// provider redirects it back, until it observes "paid" or gives up.
// Polling cadence and timeout are browser-side concerns; server-side
// this is a single read per request with no synchronization.  A poll
// racing the webhook simply sees "pending" and tries again.
type StatusHandler struct {
    Store TransactionStore
}

// NewStatusHandler constructs a StatusHandler with a non-nil store.
func NewStatusHandler(store TransactionStore) *StatusHandler {
    if store == nil {
        panic("nil store passed to NewStatusHandler")
    }
    return &StatusHandler{Store: store}
}

// Status handles GET /v1/checkout/:flow/status?id=|session_id=.  Either
// identifier works; the transaction id also reaches rows whose
// session-id write never landed.  Responses: 200 with the current
// paymentStatus, 400 when no identifier was supplied, 404 when nothing
// matches, 500 on store errors.
func (h *StatusHandler) Status(c echo.Context) error {
    fc, ok := flow.ByName(c.Param("flow"))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown checkout flow"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    var status string
    var err error
    switch {
    case c.QueryParam("id") != "":
        var id uint64
        id, err = strconv.ParseUint(c.QueryParam("id"), 10, 64)
        if err != nil || id == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
        }
        status, err = h.Store.StatusByID(ctx, fc.Table, id)
    case c.QueryParam("session_id") != "":
        status, err = h.Store.StatusBySessionID(ctx, fc.Table, c.QueryParam("session_id"))
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "id or session_id is required"})
    }

    if err != nil {
        if errors.Is(err, repository.ErrTransactionNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"paymentStatus": status})
}
