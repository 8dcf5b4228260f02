// Package intercept is the per-message entry point: it takes a fresh
// settings snapshot, runs the match engine, and tells the host whether to
// keep propagating the message. Every failure path degrades to "message
// not filtered" — nothing here may crash the host's message loop.
package intercept

import (
	"log/slog"

	"github.com/VictoriaMetrics/metrics"

	"github.com/ppiankov/phrasegate/internal/config"
	"github.com/ppiankov/phrasegate/internal/match"
)

// Reasons reported when a message is stopped. Phrase evaluation runs
// first, so when both would match the phrase reason wins.
const (
	ReasonPhrase = "phrase match"
	ReasonRegex  = "regex match"
)

// Message is the minimal view of an incoming chat message. Text is the
// plain text; the host strips media and markup before handing it over.
type Message struct {
	UserID string
	Text   string
}

// Result is the verdict returned to the host's message loop. Continue
// false stops propagation to downstream handlers. Future extensions add
// fields here; the host ignores fields it does not know.
type Result struct {
	Success  bool
	Continue bool
	Reason   string
}

// Handler checks incoming messages against the configured rules.
type Handler struct {
	snapshot config.SnapshotFunc
	engine   *match.Engine
	log      *slog.Logger

	checked       *metrics.Counter
	blockedPhrase *metrics.Counter
	blockedRegex  *metrics.Counter
}

// NewHandler builds a Handler. The snapshot function is called once per
// message so config edits apply immediately.
func NewHandler(snapshot config.SnapshotFunc, logger *slog.Logger, set *metrics.Set) *Handler {
	return &Handler{
		snapshot:      snapshot,
		engine:        match.NewEngine(logger),
		log:           logger,
		checked:       set.GetOrCreateCounter(`phrasegate_messages_checked_total`),
		blockedPhrase: set.GetOrCreateCounter(`phrasegate_messages_blocked_total{kind="phrase"}`),
		blockedRegex:  set.GetOrCreateCounter(`phrasegate_messages_blocked_total{kind="regex"}`),
	}
}

// Check decides whether msg may continue through the host pipeline.
func (h *Handler) Check(msg Message) Result {
	pass := Result{Success: true, Continue: true}

	snap, err := h.snapshot()
	if err != nil {
		h.log.Warn("settings unavailable, message passed through", "err", err)
		return pass
	}
	if !snap.Plugin.Enabled || msg.Text == "" {
		return pass
	}

	h.checked.Inc()
	if snap.Logging.Debug {
		h.log.Debug("checking message", "text", truncate(msg.Text, 50))
	}

	if snap.Phrases.Enabled {
		mode := match.ParseMode(snap.Phrases.MatchMode)
		if h.engine.Phrase(msg.Text, snap.Phrases.List, mode, snap.Phrases.CaseSensitive) {
			h.blockedPhrase.Inc()
			if snap.Logging.LogIgnored {
				h.log.Info("message blocked", "reason", ReasonPhrase, "text", truncate(msg.Text, 50))
			}
			return Result{Success: true, Continue: false, Reason: ReasonPhrase}
		}
	}

	if snap.Regex.Enabled {
		if h.engine.Regex(msg.Text, snap.Regex.Patterns, snap.Regex.CaseSensitive) {
			h.blockedRegex.Inc()
			if snap.Logging.LogIgnored {
				h.log.Info("message blocked", "reason", ReasonRegex, "text", truncate(msg.Text, 50))
			}
			return Result{Success: true, Continue: false, Reason: ReasonRegex}
		}
	}

	return pass
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
