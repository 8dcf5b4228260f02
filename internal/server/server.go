// Package server is the reference host adapter: an HTTP server standing
// in for the bot host's plugin API. It feeds incoming messages through
// the command surface first and the intercept handler otherwise, and
// serves metrics and health.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/ppiankov/phrasegate/internal/command"
	"github.com/ppiankov/phrasegate/internal/intercept"
)

// maxBodyBytes bounds request bodies; chat messages are short.
const maxBodyBytes = 64 << 10

// Server exposes the filter over HTTP.
type Server struct {
	cfg     *GatewayConfig
	surface *command.Surface
	handler *intercept.Handler
	metrics *metrics.Set
	log     *slog.Logger
	srv     *http.Server
}

// New creates a Server wired to a command surface and intercept handler.
func New(cfg *GatewayConfig, surface *command.Surface, handler *intercept.Handler, set *metrics.Set, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		surface: surface,
		handler: handler,
		metrics: set,
		log:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/message", s.handleMessage)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("gateway listening", "addr", s.cfg.ListenAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutCtx)
}

type messageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type messageResponse struct {
	Success  bool     `json:"success"`
	Continue bool     `json:"continue"`
	Reason   string   `json:"reason,omitempty"`
	Replies  []string `json:"replies,omitempty"`
}

// replyBuffer collects command replies so they can be returned in the
// HTTP response instead of pushed to a chat.
type replyBuffer struct {
	texts []string
}

func (b *replyBuffer) SendText(_ context.Context, text string) error {
	b.texts = append(b.texts, text)
	return nil
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Commands run before filtering: an /ignore command must not be
	// swallowed by a rule that happens to match its text.
	if strings.HasPrefix(req.Text, "/") {
		buf := &replyBuffer{}
		out, handled := s.surface.Dispatch(r.Context(), command.Request{UserID: req.UserID, Text: req.Text}, buf)
		if handled {
			// A handled command stops propagation regardless of outcome.
			writeJSON(w, s.log, messageResponse{
				Success: out.Success,
				Reason:  out.Reason,
				Replies: buf.texts,
			})
			return
		}
	}

	res := s.handler.Check(intercept.Message{UserID: req.UserID, Text: req.Text})
	writeJSON(w, s.log, messageResponse{
		Success:  res.Success,
		Continue: res.Continue,
		Reason:   res.Reason,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	buf := new(bytes.Buffer)
	s.metrics.WritePrometheus(buf)

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("writing response failed", "err", err)
	}
}
