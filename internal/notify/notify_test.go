package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clothsy/internal/domain"
	"clothsy/internal/notify"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	log.SetOutput(buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return buf
}

func order() domain.Order {
	return domain.NewOrder("CLTH-123456", domain.OrderDraft{
		ProductID: "p1", ProductName: "Linen Shirt", ProductPrice: decimal.NewFromInt(200),
		Size: "M", Color: "White", Quantity: 3, CustomerName: "Yassine", CustomerPhone: "0612345678",
		CustomerAddress: "12 Rue Atlas", CustomerCity: "Rabat",
	}, time.Now())
}

type sinkFunc struct {
	name string
	fn   func(ctx context.Context, o domain.Order) error
}

func (s sinkFunc) Name() string                                   { return s.name }
func (s sinkFunc) Send(ctx context.Context, o domain.Order) error { return s.fn(ctx, o) }

func TestDispatcherDeliversToEverySink(t *testing.T) {
	var mu sync.Mutex
	got := map[string]string{}
	rec := func(name string) notify.Sink {
		return sinkFunc{name, func(_ context.Context, o domain.Order) error {
			mu.Lock()
			got[name] = o.ID
			mu.Unlock()
			return nil
		}}
	}
	d := notify.NewDispatcher(4, time.Second, rec("a"), rec("b"))
	d.Dispatch(order())
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, map[string]string{"a": "CLTH-123456", "b": "CLTH-123456"}, got)
}

func TestDispatcherLogsFailures(t *testing.T) {
	logs := captureLogs(t)
	var okCalls int
	var mu sync.Mutex
	d := notify.NewDispatcher(4, time.Second,
		sinkFunc{"broken", func(context.Context, domain.Order) error { return errors.New("boom") }},
		sinkFunc{"fine", func(context.Context, domain.Order) error { mu.Lock(); okCalls++; mu.Unlock(); return nil }},
	)
	d.Dispatch(order())
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, 1, okCalls)
	assert.Contains(t, logs.String(), `"action":"notify.broken.fail"`)
	assert.Contains(t, logs.String(), `"err":"boom"`)
}

func TestDispatchNeverBlocks(t *testing.T) {
	logs := captureLogs(t)
	release := make(chan struct{})
	d := notify.NewDispatcher(1, time.Second,
		sinkFunc{"slow", func(context.Context, domain.Order) error { <-release; return nil }},
	)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.Dispatch(order())
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}
	close(release)
	require.NoError(t, d.Close(context.Background()))
	assert.Contains(t, logs.String(), "notify.queue.full")

	// after Close, Dispatch is a logged no-op
	d.Dispatch(order())
}

func TestWebhookSinkPayload(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &body))
	}))
	defer srv.Close()

	s := &notify.WebhookSink{URL: srv.URL}
	require.NoError(t, s.Send(context.Background(), order()))

	assert.Equal(t, "CLTH-123456", body["orderId"])
	assert.Equal(t, "M / White", body["variant"])
	assert.Equal(t, float64(3), body["quantity"])
	assert.Equal(t, float64(600), body["totalPrice"])
	assert.Equal(t, "", body["customerEmail"])
}

func TestEmailJSSink(t *testing.T) {
	var body struct {
		ServiceID      string         `json:"service_id"`
		TemplateID     string         `json:"template_id"`
		UserID         string         `json:"user_id"`
		AccessToken    string         `json:"accessToken"`
		TemplateParams map[string]any `json:"template_params"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		_, _ = io.WriteString(w, "OK")
	}))
	defer srv.Close()

	s := &notify.EmailJSSink{Endpoint: srv.URL, ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub", PrivateKey: "priv", ToName: "Clothsy"}
	require.NoError(t, s.Send(context.Background(), order()))
	assert.Equal(t, "svc", body.ServiceID)
	assert.Equal(t, "tpl", body.TemplateID)
	assert.Equal(t, "pub", body.UserID)
	assert.Equal(t, "priv", body.AccessToken)
	assert.Equal(t, "600 MAD", body.TemplateParams["total_price"])
	assert.Equal(t, "No notes", body.TemplateParams["notes"])
}

func TestSinkReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The user ID is invalid", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := (&notify.EmailJSSink{Endpoint: srv.URL}).Send(context.Background(), order())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "user ID is invalid")
}

func TestFormspree(t *testing.T) {
	var path string
	var msg notify.ContactMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&msg)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	f := &notify.FormspreeClient{FormID: "xyzabc", Base: srv.URL + "/f/"}
	require.NoError(t, f.Send(context.Background(), notify.ContactMessage{Name: "Sara", Email: "s@shop.ma", Message: "Hi"}))
	assert.Equal(t, "/f/xyzabc", path)
	assert.Equal(t, "Hi", msg.Message)
}
