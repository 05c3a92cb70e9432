package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coaching-payments/internal/flow"
    "github.com/iliyamo/coaching-payments/internal/payment"
)

func newCheckoutHandler(store *fakeStore, sessions *fakeSessions) *CheckoutHandler {
    return NewCheckoutHandler(store, sessions, flow.Pricing{RateCentsPerMinute: 150},
        "eur", "https://example.com/thanks", "https://example.com/cancel")
}

func postCheckout(t *testing.T, h *CheckoutHandler, flowName, body string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/checkout/"+flowName, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("flow")
    c.SetParamValues(flowName)
    if err := h.CreateSession(c); err != nil {
        t.Fatalf("handler returned error: %v", err)
    }
    return rec
}

func TestCreateSession_Booking(t *testing.T) {
    store := newFakeStore()
    sessions := &fakeSessions{}
    h := newCheckoutHandler(store, sessions)

    rec := postCheckout(t, h, "booking",
        `{"name":"Jane","email":"jane@x.com","appointment_date":"2025-06-01T10:00:00Z","duration":60}`)

    if rec.Code != http.StatusOK {
        t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
    }
    var resp map[string]string
    if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode response: %v", err)
    }
    if resp["url"] == "" {
        t.Fatal("expected checkout url in response")
    }

    row := store.rows["booking_transactions"][1]
    if row == nil {
        t.Fatal("expected a transaction row to be created")
    }
    if row.PaymentStatus != "pending" {
        t.Fatalf("payment status: got %q, want pending", row.PaymentStatus)
    }
    if row.AmountCents != 9000 {
        t.Fatalf("amount: got %d, want 9000", row.AmountCents)
    }
    if row.CheckoutSessionID == nil || *row.CheckoutSessionID != "cs_test_1" {
        t.Fatalf("session id not persisted: %+v", row.CheckoutSessionID)
    }

    // The provider reference is the row id, attached before redirect.
    if len(sessions.created) != 1 {
        t.Fatalf("expected one provider call, got %d", len(sessions.created))
    }
    in := sessions.created[0]
    if in.Reference != "1" {
        t.Fatalf("reference: got %q, want \"1\"", in.Reference)
    }
    if in.Flow != "booking" {
        t.Fatalf("flow metadata: got %q", in.Flow)
    }
    if in.Currency != "eur" {
        t.Fatalf("currency: got %q", in.Currency)
    }
}

func TestCreateSession_CoachingTier(t *testing.T) {
    store := newFakeStore()
    sessions := &fakeSessions{}
    h := newCheckoutHandler(store, sessions)

    rec := postCheckout(t, h, "coaching",
        `{"request_id":"req-42","tier":"premium","email":"jane@x.com"}`)

    if rec.Code != http.StatusOK {
        t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
    }
    row := store.rows["coaching_transactions"][1]
    if row == nil {
        t.Fatal("expected a coaching transaction row")
    }
    if row.AmountCents != 49900 {
        t.Fatalf("amount: got %d, want 49900", row.AmountCents)
    }
}

func TestCreateSession_TestBookingZeroAmount(t *testing.T) {
    store := newFakeStore()
    sessions := &fakeSessions{}
    h := newCheckoutHandler(store, sessions)

    rec := postCheckout(t, h, "booking",
        `{"name":"Jane","email":"jane@x.com","appointment_date":"2025-06-01T10:00:00Z","duration":60,"is_test_booking":true}`)

    if rec.Code != http.StatusOK {
        t.Fatalf("status: got %d", rec.Code)
    }
    if got := sessions.created[0].AmountCents; got != 0 {
        t.Fatalf("provider amount: got %d, want 0 despite 60 minute duration", got)
    }
    if got := store.rows["booking_transactions"][1].AmountCents; got != 0 {
        t.Fatalf("stored amount: got %d, want 0", got)
    }
}

func TestCreateSession_MissingFieldIsRejected(t *testing.T) {
    store := newFakeStore()
    sessions := &fakeSessions{}
    h := newCheckoutHandler(store, sessions)

    rec := postCheckout(t, h, "booking", `{"name":"Jane","email":"jane@x.com","duration":60}`)

    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status: got %d, want 400", rec.Code)
    }
    if len(store.rows["booking_transactions"]) != 0 {
        t.Fatal("validation failure must not create a row")
    }
    if len(sessions.created) != 0 {
        t.Fatal("validation failure must not call the provider")
    }
}

func TestCreateSession_UnknownFlow(t *testing.T) {
    h := newCheckoutHandler(newFakeStore(), &fakeSessions{})
    rec := postCheckout(t, h, "massage", `{}`)
    if rec.Code != http.StatusNotFound {
        t.Fatalf("status: got %d, want 404", rec.Code)
    }
}

func TestCreateSession_ProviderFailureLeavesPendingRow(t *testing.T) {
    store := newFakeStore()
    sessions := &fakeSessions{fail: true}
    h := newCheckoutHandler(store, sessions)

    rec := postCheckout(t, h, "booking",
        `{"name":"Jane","email":"jane@x.com","appointment_date":"2025-06-01T10:00:00Z","duration":60}`)

    if rec.Code != http.StatusInternalServerError {
        t.Fatalf("status: got %d, want 500", rec.Code)
    }
    // The pending row is not rolled back; a retry creates a new one and
    // the orphan is reconciled manually.
    row := store.rows["booking_transactions"][1]
    if row == nil || row.PaymentStatus != "pending" {
        t.Fatalf("expected orphaned pending row, got %+v", row)
    }
    if row.CheckoutSessionID != nil {
        t.Fatal("no session id should be set after a provider failure")
    }
}

func TestCreateSession_SessionPersistFailure(t *testing.T) {
    store := newFakeStore()
    store.failSetSession = true
    sessions := &fakeSessions{}
    h := newCheckoutHandler(store, sessions)

    rec := postCheckout(t, h, "booking",
        `{"name":"Jane","email":"jane@x.com","appointment_date":"2025-06-01T10:00:00Z","duration":60}`)

    if rec.Code != http.StatusInternalServerError {
        t.Fatalf("status: got %d, want 500", rec.Code)
    }
    // The session is live at the provider even though the write failed;
    // the webhook later correlates by the reference, not the session id.
    if len(sessions.created) != 1 {
        t.Fatalf("expected the provider session to exist, got %d calls", len(sessions.created))
    }
    row := store.rows["booking_transactions"][1]
    if row == nil || row.CheckoutSessionID != nil {
        t.Fatalf("row should exist without a session id, got %+v", row)
    }
}

// slowSessions delays the provider response without failing it.
type slowSessions struct {
    fakeSessions
    delay time.Duration
}

func (s *slowSessions) CreateSession(ctx context.Context, in payment.CreateSessionInput) (payment.Session, error) {
    time.Sleep(s.delay)
    return s.fakeSessions.CreateSession(ctx, in)
}

// deadlineStore records the state of the context handed to the
// session-id write so the test can verify its budget.
type deadlineStore struct {
    *fakeStore
    writeCtxErr    error
    writeRemaining time.Duration
}

func (s *deadlineStore) SetCheckoutSession(ctx context.Context, table string, id uint64, sessionID string) error {
    s.writeCtxErr = ctx.Err()
    if dl, ok := ctx.Deadline(); ok {
        s.writeRemaining = time.Until(dl)
    }
    return s.fakeStore.SetCheckoutSession(ctx, table, id, sessionID)
}

func TestCreateSession_SlowProviderDoesNotStarveSessionWrite(t *testing.T) {
    store := &deadlineStore{fakeStore: newFakeStore()}
    sessions := &slowSessions{delay: 300 * time.Millisecond}
    h := NewCheckoutHandler(store, sessions, flow.Pricing{RateCentsPerMinute: 150},
        "eur", "https://example.com/thanks", "https://example.com/cancel")

    rec := postCheckout(t, h, "booking",
        `{"name":"Jane","email":"jane@x.com","appointment_date":"2025-06-01T10:00:00Z","duration":60}`)

    if rec.Code != http.StatusOK {
        t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
    }
    if store.writeCtxErr != nil {
        t.Fatalf("session-id write ran on a spent context: %v", store.writeCtxErr)
    }
    // The write gets a fresh budget after the provider returns; time the
    // provider spends must not count against it.
    if store.writeRemaining < 4800*time.Millisecond {
        t.Fatalf("session-id write budget already drained to %v", store.writeRemaining)
    }
    row := store.rows["booking_transactions"][1]
    if row == nil || row.CheckoutSessionID == nil || *row.CheckoutSessionID != "cs_test_1" {
        t.Fatalf("session id not persisted after slow provider: %+v", row)
    }
}

func TestCreateSession_StoreFailure(t *testing.T) {
    store := newFakeStore()
    store.failCreate = true
    sessions := &fakeSessions{}
    h := newCheckoutHandler(store, sessions)

    rec := postCheckout(t, h, "booking",
        `{"name":"Jane","email":"jane@x.com","appointment_date":"2025-06-01T10:00:00Z","duration":60}`)

    if rec.Code != http.StatusInternalServerError {
        t.Fatalf("status: got %d, want 500", rec.Code)
    }
    if len(sessions.created) != 0 {
        t.Fatal("provider must not be called when the row cannot be created")
    }
}
