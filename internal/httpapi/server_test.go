package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradebot/internal/bot"
	"tradebot/internal/broker"
	"tradebot/internal/domain"
	"tradebot/internal/notify"
	"tradebot/internal/store"
	"tradebot/internal/stream"
)

// captureNotifier records Post and Reply calls instead of talking to Slack.
type captureNotifier struct {
	mu      sync.Mutex
	posts   []string
	replies []string
}

var _ notify.Notifier = (*captureNotifier)(nil)

func (c *captureNotifier) Post(_ context.Context, channel, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = append(c.posts, channel+": "+text)
	return nil
}

func (c *captureNotifier) Reply(_ context.Context, responseURL, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, responseURL+": "+text)
	return nil
}

type nopSink struct{}

func (nopSink) TradeUpdate(domain.TradeEvent)     {}
func (nopSink) AccountUpdate(domain.AccountEvent) {}

func newTestServer(t *testing.T, secret string) (*Server, *captureNotifier) {
	t.Helper()
	gw := broker.NewSimulatorBroker()
	gw.SetPrice("AAPL", decimal.RequireFromString("150.00"))
	registry := stream.NewRegistry(broker.NewSimulatorStreamSource(), nopSink{}, broker.Channels())
	t.Cleanup(registry.Shutdown)
	dispatcher := bot.NewDispatcher(gw, registry, store.NopStore{}, false)
	n := &captureNotifier{}
	return NewServer("127.0.0.1:0", dispatcher, n, "#trading", secret), n
}

func slashRequest(command, text, responseURL string) *http.Request {
	form := url.Values{}
	form.Set("text", text)
	if responseURL != "" {
		form.Set("response_url", responseURL)
	}
	r := httptest.NewRequest(http.MethodPost, "/slash/"+command, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestDirectReplyInBody(t *testing.T) {
	srv, n := newTestServer(t, "")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, slashRequest("list", "positions", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(w.Result().Body)
	if got := string(body); got != "No positions." {
		t.Errorf("body = %q, want %q", got, "No positions.")
	}
	if len(n.posts) != 0 || len(n.replies) != 0 {
		t.Errorf("direct reply should not use the notifier, got posts=%v replies=%v", n.posts, n.replies)
	}
}

func TestBroadcastGoesToChannel(t *testing.T) {
	srv, n := newTestServer(t, "")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, slashRequest("order", "market buy 10 aapl day", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(w.Result().Body)
	if len(body) != 0 {
		t.Errorf("broadcast response body = %q, want empty", body)
	}
	if len(n.posts) != 1 {
		t.Fatalf("posts = %v, want one broadcast", n.posts)
	}
	if !strings.HasPrefix(n.posts[0], "#trading: ") {
		t.Errorf("broadcast channel = %q, want #trading", n.posts[0])
	}
	if !strings.Contains(n.posts[0], "AAPL") {
		t.Errorf("broadcast %q does not mention the symbol", n.posts[0])
	}
}

func TestErrorRepliesPrivately(t *testing.T) {
	srv, n := newTestServer(t, "")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, slashRequest("order", "market buy ten aapl day", "https://hooks.example.com/r1"))

	body, _ := io.ReadAll(w.Result().Body)
	if len(body) != 0 {
		t.Errorf("response body = %q, want empty (reply sent via response_url)", body)
	}
	if len(n.replies) != 1 {
		t.Fatalf("replies = %v, want one private reply", n.replies)
	}
	if !strings.HasPrefix(n.replies[0], "https://hooks.example.com/r1: ERROR:") {
		t.Errorf("reply = %q, want ERROR via response_url", n.replies[0])
	}
	if len(n.posts) != 0 {
		t.Errorf("error must not broadcast, got %v", n.posts)
	}
}

func TestErrorWithoutResponseURLFallsBackToBody(t *testing.T) {
	srv, n := newTestServer(t, "")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, slashRequest("order", "market buy ten aapl day", ""))

	body, _ := io.ReadAll(w.Result().Body)
	if !strings.HasPrefix(string(body), "ERROR:") {
		t.Errorf("body = %q, want inline ERROR fallback", body)
	}
	if len(n.replies) != 0 {
		t.Errorf("replies = %v, want none without response_url", n.replies)
	}
}

func TestSignatureRejected(t *testing.T) {
	srv, _ := newTestServer(t, "sig-secret")
	w := httptest.NewRecorder()

	r := slashRequest("help", "", "")
	r.Header.Set("X-Slack-Request-Timestamp", fmt.Sprint(time.Now().Unix()))
	r.Header.Set("X-Slack-Signature", "v0=deadbeef")
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestSignatureAccepted(t *testing.T) {
	const secret = "sig-secret"
	srv, _ := newTestServer(t, secret)
	w := httptest.NewRecorder()

	form := url.Values{}
	form.Set("text", "")
	body := form.Encode()
	r := httptest.NewRequest(http.MethodPost, "/slash/help", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	ts := fmt.Sprint(time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)
	r.Header.Set("X-Slack-Request-Timestamp", ts)
	r.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))

	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	respBody, _ := io.ReadAll(w.Result().Body)
	if !strings.Contains(string(respBody), "order") {
		t.Errorf("help body = %q, want command listing", respBody)
	}
}

func TestUnknownCommand(t *testing.T) {
	srv, n := newTestServer(t, "")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, slashRequest("bogus", "", "https://hooks.example.com/r2"))

	if len(n.replies) != 1 || !strings.Contains(n.replies[0], "unknown command") {
		t.Errorf("replies = %v, want unknown-command reply", n.replies)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, "")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
