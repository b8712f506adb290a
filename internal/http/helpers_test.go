package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"nymph/internal/domain"
	"nymph/internal/http/handlers"
	"nymph/internal/payment"
	"nymph/internal/services"
	"nymph/internal/storage"
)

const testSID = "6f1c8a2e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"

type verifyCall struct {
	Token  string
	Amount domain.Money
}

// stubVerifier answers every verification the same way and records the calls.
type stubVerifier struct {
	mu    sync.Mutex
	ok    bool
	err   error
	calls []verifyCall
}

func (s *stubVerifier) Verify(_ context.Context, token string, amount domain.Money) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, verifyCall{token, amount})
	return s.ok, s.err
}

type testApp struct {
	app      *fiber.App
	kv       *storage.Memory
	verifier *stubVerifier
}

// newTestApp mounts the real routes over a memory backend without CSRF, so
// tests can post forms directly.
func newTestApp(t *testing.T, v *stubVerifier) *testApp {
	t.Helper()
	if v == nil {
		v = &stubVerifier{ok: true}
	}
	kv := storage.NewMemory()
	ctl := services.NewCheckoutController(v, services.CheckoutSettings{
		PublicKey:  "test_public_key",
		ProductURL: "http://localhost:8080",
	})

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	handlers.NewDeps(kv, services.DefaultCatalog(), ctl, v).Mount(app)
	app.Use(handlers.NotFound)
	return &testApp{app: app, kv: kv, verifier: v}
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (a *testApp) get(t *testing.T, path string, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: testSID})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return a.do(t, req)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "sid", Value: testSID})
	return a.do(t, req)
}

// cartLines reads the persisted cart of the test session.
func (a *testApp) cartLines(t *testing.T) []domain.CartLine {
	t.Helper()
	b, err := a.kv.Get(context.Background(), services.CartKey+":"+testSID)
	if err != nil {
		return nil
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(b, &lines); err != nil {
		t.Fatalf("persisted cart unreadable: %v", err)
	}
	return lines
}

func (a *testApp) fillCart(t *testing.T, ids ...int) {
	t.Helper()
	for _, id := range ids {
		resp, _ := a.post(t, "/cart", url.Values{"productId": {strconv.Itoa(id)}})
		if resp.StatusCode != fiber.StatusFound {
			t.Fatalf("add %d: status %d", id, resp.StatusCode)
		}
	}
}

func cookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func toastOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	c := cookie(resp, "toast")
	if c == nil {
		return ""
	}
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		t.Fatalf("toast cookie: %v", err)
	}
	return msg
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	SID    string         `json:"sid"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

var _ payment.Verifier = (*stubVerifier)(nil)
