package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestContext(req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// roundTrip writes the cookie via Set into a recorder, then replays it onto
// a fresh incoming request the way a browser would on the next call.
func roundTrip(t *testing.T, m *Manager, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	setCtx, setW := newTestContext(httptest.NewRequest(http.MethodGet, "/", nil))
	if err := m.Set(setCtx, userID); err != nil {
		t.Fatalf("Set: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range setW.Result().Cookies() {
		req.AddCookie(c)
	}
	getCtx, getW := newTestContext(req)
	return getCtx, getW
}

func TestManagerSetGetRoundTrip(t *testing.T) {
	m := New("cookie-secret", "iam_session", time.Hour, false)

	getCtx, _ := roundTrip(t, m, "user-123")

	sub, err := m.Get(getCtx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sub != "user-123" {
		t.Errorf("Get() = %q, want %q", sub, "user-123")
	}
}

func TestManagerGetRejectsTamperedSignature(t *testing.T) {
	m := New("cookie-secret", "iam_session", time.Hour, false)

	getCtx, _ := roundTrip(t, m, "user-123")
	cookie, err := getCtx.Request.Cookie("iam_session")
	if err != nil {
		t.Fatalf("missing cookie: %v", err)
	}
	cookie.Value = cookie.Value + "tampered"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	tamperedCtx, _ := newTestContext(req)

	if _, err := m.Get(tamperedCtx); err == nil {
		t.Errorf("Get of a tampered cookie unexpectedly succeeded")
	}
}

func TestManagerGetRejectsWrongSecret(t *testing.T) {
	m := New("cookie-secret", "iam_session", time.Hour, false)
	other := New("different-secret", "iam_session", time.Hour, false)

	getCtx, _ := roundTrip(t, m, "user-123")

	if _, err := other.Get(getCtx); err == nil {
		t.Errorf("Get with the wrong secret unexpectedly succeeded")
	}
}

func TestManagerGetRejectsExpiredSession(t *testing.T) {
	m := New("cookie-secret", "iam_session", -time.Minute, false)

	getCtx, _ := roundTrip(t, m, "user-123")

	if _, err := m.Get(getCtx); err == nil {
		t.Errorf("Get of an expired session unexpectedly succeeded")
	}
}

func TestManagerGetRejectsMissingCookie(t *testing.T) {
	m := New("cookie-secret", "iam_session", time.Hour, false)
	ctx, _ := newTestContext(httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := m.Get(ctx); err == nil {
		t.Errorf("Get with no cookie present unexpectedly succeeded")
	}
}

func TestManagerClearExpiresCookie(t *testing.T) {
	m := New("cookie-secret", "iam_session", time.Hour, false)
	ctx, w := newTestContext(httptest.NewRequest(http.MethodGet, "/", nil))

	m.Clear(ctx)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected exactly one Set-Cookie header, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("Clear() cookie MaxAge = %d, want negative", cookies[0].MaxAge)
	}
}
