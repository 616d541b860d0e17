package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"clothsy/internal/http/handlers"
	"clothsy/internal/live"
	"clothsy/internal/notify"
	"clothsy/internal/repos"
	"clothsy/internal/server"
	"clothsy/internal/services"
	"clothsy/internal/store"
)

const (
	adminUser = "admin1"
	adminPass = "clothsy2025"
)

type fakeContact struct {
	mu   sync.Mutex
	sent []notify.ContactMessage
	err  error
}

func (f *fakeContact) Send(_ context.Context, m notify.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return f.err
}

type testApp struct {
	*fiber.App
	Store   *store.Store
	Auth    *services.AuthService
	Contact *fakeContact
}

// newTestApp serves the real routes over an in-memory SQLite seeded with the
// demo catalogue. Rate limits are off unless opt turns them on.
func newTestApp(t *testing.T, opt server.Options) *testApp {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedDemo(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	st := store.New(repos.Tables(db))
	st.Initialize(context.Background())

	admins, err := services.ParseAdminUsers(adminUser + ":" + adminPass)
	if err != nil {
		t.Fatalf("admins: %v", err)
	}
	auth := services.NewAuthService(admins, "test-secret", 0)
	contact := &fakeContact{}
	hub := live.NewHub(st, 4)
	t.Cleanup(hub.Close)

	deps := handlers.NewDeps(st, auth, contact, hub, false)
	deps.StatsHandler.Wait = true
	deps.ContactHandler.Wait = true
	return &testApp{App: server.New(deps, auth, opt), Store: st, Auth: auth, Contact: contact}
}

func (a *testApp) token(t *testing.T) string {
	t.Helper()
	tok, err := a.Auth.Login(adminUser, adminPass)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return tok
}

// do sends a JSON request; tok may be empty.
func (a *testApp) do(t *testing.T, method, path string, body any, tok string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := a.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	User   string         `json:"user"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// captureLogs collects the JSON log lines written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
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

func checkout() map[string]any {
	return map[string]any{
		"productId":       "linen-shirt",
		"size":            "M",
		"color":           "White",
		"quantity":        2,
		"customerName":    "Yassine",
		"customerPhone":   "06 12 34 56 78",
		"customerAddress": "12 Rue Atlas",
		"customerCity":    "rabat",
	}
}

func jsonField(t *testing.T, body []byte, key string) string {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	s, _ := m[key].(string)
	if s == "" {
		t.Fatalf("field %q missing in %s", key, body)
	}
	return s
}
