// Package httpapi serves the Slack slash-command webhook endpoints and
// delivers command results per their routing.
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"tradebot/internal/bot"
	"tradebot/internal/domain"
	"tradebot/internal/notify"
)

// Server is the HTTP front end receiving slash-command webhooks.
type Server struct {
	addr          string
	dispatcher    *bot.Dispatcher
	notifier      notify.Notifier
	channel       string // broadcast target
	signingSecret string // empty disables request verification
	log           *slog.Logger

	httpSrv *http.Server
}

// NewServer creates a Server. channel is the chat channel receiving
// broadcasts; signingSecret, when non-empty, enables Slack request-signature
// verification.
func NewServer(addr string, dispatcher *bot.Dispatcher, notifier notify.Notifier, channel, signingSecret string) *Server {
	return &Server{
		addr:          addr,
		dispatcher:    dispatcher,
		notifier:      notifier,
		channel:       channel,
		signingSecret: signingSecret,
		log:           slog.Default().With("component", "httpapi"),
	}
}

// RegisterRoutes registers all routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /slash/{command}", s.handleSlash)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the http.Handler with signature verification applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.verifySignature(mux)
}

// ListenAndServe starts the HTTP listener and blocks until the context is
// cancelled or a fatal error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown performs a graceful shutdown of the HTTP server.
func (s *Server) Shutdown() error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

// verifySignature checks the Slack request signature before passing the
// request on. A no-op when no signing secret is configured.
func (s *Server) verifySignature(next http.Handler) http.Handler {
	if s.signingSecret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "reading body", http.StatusBadRequest)
			return
		}
		verifier, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
		if err != nil {
			http.Error(w, "missing signature", http.StatusUnauthorized)
			return
		}
		verifier.Write(body)
		if err := verifier.Ensure(); err != nil {
			http.Error(w, "bad signature", http.StatusUnauthorized)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// handleSlash dispatches one slash command and delivers the result: direct
// replies go in the response body, broadcasts to the configured channel,
// private replies to the command's response_url.
func (s *Server) handleSlash(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	req := bot.Request{
		Command:     r.PathValue("command"),
		Text:        r.PostFormValue("text"),
		ResponseURL: r.PostFormValue("response_url"),
	}
	res := s.dispatcher.Dispatch(r.Context(), req)

	switch res.Routing {
	case domain.RouteChannelBroadcast:
		if err := s.notifier.Post(r.Context(), s.channel, res.Message); err != nil {
			s.log.Error("broadcasting result", "command", req.Command, "error", err)
			s.writeText(w, res.Message) // don't lose the confirmation
			return
		}
		w.WriteHeader(http.StatusOK)
	case domain.RoutePrivateReply:
		if req.ResponseURL == "" {
			s.writeText(w, res.Message)
			return
		}
		if err := s.notifier.Reply(r.Context(), req.ResponseURL, res.Message); err != nil {
			s.log.Error("replying privately", "command", req.Command, "error", err)
			s.writeText(w, res.Message)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		s.writeText(w, res.Message)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeText(w, "ok")
}

func (s *Server) writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := fmt.Fprint(w, text); err != nil {
		s.log.Error("writing response", "error", err)
	}
}
