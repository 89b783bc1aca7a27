package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var fastRetry = PosterOptions{Timeout: time.Second, PerMinute: 600, MaxRetries: 3, InitialBackoff: time.Millisecond}

func TestWebhookNotifier_Delivers(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type: %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, fastRetry)
	err := n.Send(context.Background(), Alert{Level: AlertInfo, Title: "Bot activated", Message: "capital 100"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["title"] != "Bot activated" || got["level"] != "INFO" {
		t.Errorf("payload: %v", got)
	}
	if _, ok := got["ts"]; !ok {
		t.Error("payload missing ts")
	}
}

func TestWebhookNotifier_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewWebhookNotifier(srv.URL, fastRetry).Send(context.Background(), Alert{Title: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls: got %d, want 3", calls.Load())
	}
}

func TestWebhookNotifier_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, fastRetry).Send(context.Background(), Alert{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected status 400 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not be retried, calls=%d", calls.Load())
	}
}

func TestWebhookNotifier_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := NewWebhookNotifier(srv.URL, fastRetry).Send(context.Background(), Alert{Title: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 4 { // first attempt + 3 retries
		t.Errorf("calls: got %d, want 4", calls.Load())
	}
}

func TestTelegramNotifier_EscapesAndRoutes(t *testing.T) {
	var path string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", fastRetry)
	n.baseURL = srv.URL
	if err := n.Send(context.Background(), Alert{Level: AlertWarning, Title: "SELL signal", Message: "rsi=100.0"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if path != "/botTOKEN/sendMessage" {
		t.Errorf("path: %q", path)
	}
	if body["chat_id"] != "42" || body["parse_mode"] != "MarkdownV2" {
		t.Errorf("body: %v", body)
	}
	if text, _ := body["text"].(string); !strings.Contains(text, `rsi\=100\.0`) {
		t.Errorf("text not escaped: %q", text)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := escapeMarkdown("a_b*c.d"); got != `a\_b\*c\.d` {
		t.Errorf("got %q", got)
	}
}

type failing struct{ err error }

func (f failing) Send(ctx context.Context, a Alert) error { return f.err }

func TestMulti_JoinsErrors(t *testing.T) {
	e1, e2 := errors.New("one"), errors.New("two")
	var buf bytes.Buffer
	m := Multi{failing{e1}, NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil))), failing{e2}}

	err := m.Send(context.Background(), Alert{Level: AlertInfo, Title: "t", Message: "m"})
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Errorf("expected both errors, got %v", err)
	}
	if !strings.Contains(buf.String(), `"title":"t"`) {
		t.Errorf("log notifier not reached: %s", buf.String())
	}
}
