// Package command implements the /ignore chat command surface: an ordered
// list of (pattern, handler) routes tried against raw message text, first
// match wins. Mutating commands are permission-gated and drive the rule
// store; list and help are open to everyone.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ppiankov/phrasegate/internal/config"
	"github.com/ppiankov/phrasegate/internal/match"
	"github.com/ppiankov/phrasegate/internal/perm"
	"github.com/ppiankov/phrasegate/internal/rules"
)

// Sender delivers a reply to the chat the command came from. Supplied by
// the host adapter.
type Sender interface {
	SendText(ctx context.Context, text string) error
}

// Request is an incoming command invocation.
type Request struct {
	UserID string
	Text   string
}

// Outcome is the result reported back to the host's command router.
type Outcome struct {
	Success bool
	Reason  string
}

type handlerFunc func(ctx context.Context, req Request, args map[string]string, send Sender) Outcome

type route struct {
	re     *regexp.Regexp
	handle handlerFunc
}

// Surface routes /ignore commands to their handlers.
type Surface struct {
	store    *rules.Store
	snapshot config.SnapshotFunc
	log      *slog.Logger
	routes   []route
}

// NewSurface builds the command surface over a store and a settings
// snapshotter. The snapshotter is called per command so permission edits
// take effect without restart.
func NewSurface(store *rules.Store, snapshot config.SnapshotFunc, logger *slog.Logger) *Surface {
	s := &Surface{store: store, snapshot: snapshot, log: logger}
	s.routes = []route{
		{regexp.MustCompile(`^/ignore\s*$`), s.help},
		{regexp.MustCompile(`^/ignore\s+list\s*$`), s.list},
		{regexp.MustCompile(`^/ignore\s+add\s+(?P<phrase>.+)$`), s.addPhrase},
		{regexp.MustCompile(`^/ignore\s+addr\s+(?P<pattern>.+)$`), s.addPattern},
		{regexp.MustCompile(`^/ignore\s+del\s+(?P<phrase>.+)$`), s.delPhrase},
		{regexp.MustCompile(`^/ignore\s+delr\s+(?P<pattern>.+)$`), s.delPattern},
	}
	return s
}

// Dispatch tries the message text against each route in priority order.
// The second return is false when no route matched, meaning the text is
// not an /ignore command at all.
func (s *Surface) Dispatch(ctx context.Context, req Request, send Sender) (Outcome, bool) {
	for _, r := range s.routes {
		m := r.re.FindStringSubmatch(req.Text)
		if m == nil {
			continue
		}
		args := map[string]string{}
		for i, name := range r.re.SubexpNames() {
			if name != "" && i < len(m) {
				args[name] = m[i]
			}
		}
		return r.handle(ctx, req, args, send), true
	}
	return Outcome{}, false
}

const helpText = `Ignore list management

/ignore list - list blocked phrases and patterns
/ignore add <phrase> - add a blocked phrase
/ignore addr <pattern> - add a regex pattern
/ignore del <phrase> - remove a blocked phrase
/ignore delr <pattern> - remove a regex pattern

Examples:
/ignore add spam
/ignore addr ^/spam.*
/ignore del promo`

func (s *Surface) help(ctx context.Context, _ Request, _ map[string]string, send Sender) Outcome {
	s.send(ctx, send, helpText)
	return Outcome{Success: true, Reason: "help"}
}

// list needs no permission: it is read-only and renders both sections
// with 1-based numbering.
func (s *Surface) list(ctx context.Context, _ Request, _ map[string]string, send Sender) Outcome {
	mode := string(match.ModeContains)
	if snap, err := s.snapshot(); err == nil {
		mode = string(match.ParseMode(snap.Phrases.MatchMode))
	}

	var b strings.Builder
	b.WriteString("Blocked rules\n\n")
	b.WriteString("Phrases (mode: " + mode + ")\n")
	writeNumbered(&b, s.store.Phrases())
	b.WriteString("\nRegex patterns\n")
	writeNumbered(&b, s.store.Patterns())

	s.send(ctx, send, b.String())
	return Outcome{Success: true, Reason: "listed rules"}
}

func writeNumbered(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("  (empty)\n")
		return
	}
	for i, item := range items {
		fmt.Fprintf(b, "  %d. %s\n", i+1, item)
	}
}

func (s *Surface) addPhrase(ctx context.Context, req Request, args map[string]string, send Sender) Outcome {
	if out, ok := s.requirePermission(ctx, req, send); !ok {
		return out
	}
	phrase := strings.TrimSpace(args["phrase"])
	if phrase == "" {
		s.send(ctx, send, "Missing phrase.\nUsage: /ignore add <phrase>")
		return Outcome{Success: false, Reason: "missing argument"}
	}

	return s.mutate(ctx, send, mutation{
		value:    phrase,
		exists:   func() bool { return contains(s.store.Phrases(), phrase) },
		apply:    func() bool { return s.store.AddPhrase(phrase) },
		done:     "Added phrase: ",
		conflict: "Phrase already exists: ",
		adding:   true,
	})
}

func (s *Surface) addPattern(ctx context.Context, req Request, args map[string]string, send Sender) Outcome {
	if out, ok := s.requirePermission(ctx, req, send); !ok {
		return out
	}
	pattern := strings.TrimSpace(args["pattern"])
	if pattern == "" {
		s.send(ctx, send, "Missing pattern.\nUsage: /ignore addr <pattern>")
		return Outcome{Success: false, Reason: "missing argument"}
	}

	// Validate compilability here so the store never holds a pattern that
	// was broken at add time. Patterns that rot later are skipped at scan
	// time instead.
	if _, err := regexp.Compile(pattern); err != nil {
		s.send(ctx, send, "Invalid regular expression: "+err.Error())
		return Outcome{Success: false, Reason: "invalid pattern"}
	}

	return s.mutate(ctx, send, mutation{
		value:    pattern,
		exists:   func() bool { return contains(s.store.Patterns(), pattern) },
		apply:    func() bool { return s.store.AddPattern(pattern) },
		done:     "Added pattern: ",
		conflict: "Pattern already exists: ",
		adding:   true,
	})
}

func (s *Surface) delPhrase(ctx context.Context, req Request, args map[string]string, send Sender) Outcome {
	if out, ok := s.requirePermission(ctx, req, send); !ok {
		return out
	}
	phrase := strings.TrimSpace(args["phrase"])
	if phrase == "" {
		s.send(ctx, send, "Missing phrase.\nUsage: /ignore del <phrase>")
		return Outcome{Success: false, Reason: "missing argument"}
	}

	return s.mutate(ctx, send, mutation{
		value:    phrase,
		exists:   func() bool { return contains(s.store.Phrases(), phrase) },
		apply:    func() bool { return s.store.DeletePhrase(phrase) },
		done:     "Removed phrase: ",
		conflict: "Phrase not found: ",
	})
}

func (s *Surface) delPattern(ctx context.Context, req Request, args map[string]string, send Sender) Outcome {
	if out, ok := s.requirePermission(ctx, req, send); !ok {
		return out
	}
	pattern := strings.TrimSpace(args["pattern"])
	if pattern == "" {
		s.send(ctx, send, "Missing pattern.\nUsage: /ignore delr <pattern>")
		return Outcome{Success: false, Reason: "missing argument"}
	}

	return s.mutate(ctx, send, mutation{
		value:    pattern,
		exists:   func() bool { return contains(s.store.Patterns(), pattern) },
		apply:    func() bool { return s.store.DeletePattern(pattern) },
		done:     "Removed pattern: ",
		conflict: "Pattern not found: ",
	})
}

// mutation describes one store edit and its user-facing messages.
// For adds, exists=true means conflict; for deletes, exists=false does.
type mutation struct {
	value    string
	exists   func() bool
	apply    func() bool
	done     string
	conflict string
	adding   bool
}

func (s *Surface) mutate(ctx context.Context, send Sender, m mutation) Outcome {
	if m.exists() == m.adding {
		s.send(ctx, send, m.conflict+m.value)
		reason := "not found"
		if m.adding {
			reason = "already exists"
		}
		return Outcome{Success: false, Reason: reason}
	}

	if !m.apply() {
		s.send(ctx, send, "Could not save the rule file, change was not applied.")
		return Outcome{Success: false, Reason: "persist failed"}
	}

	s.send(ctx, send, m.done+m.value)
	return Outcome{Success: true, Reason: strings.TrimSpace(m.done) + " " + m.value}
}

// requirePermission resolves the user_control config per call. A failed
// snapshot read denies: commands fail closed, unlike filtering which
// fails open.
func (s *Surface) requirePermission(ctx context.Context, req Request, send Sender) (Outcome, bool) {
	snap, err := s.snapshot()
	if err != nil {
		s.log.Warn("settings unavailable during permission check", "err", err)
		s.send(ctx, send, "You do not have permission to run this command.")
		return Outcome{Success: false, Reason: "permission denied"}, false
	}
	if !perm.Allowed(req.UserID, snap.UserControl) {
		s.send(ctx, send, "You do not have permission to run this command.")
		return Outcome{Success: false, Reason: "permission denied"}, false
	}
	return Outcome{}, true
}

func (s *Surface) send(ctx context.Context, send Sender, text string) {
	if err := send.SendText(ctx, text); err != nil {
		s.log.Warn("sending reply failed", "err", err)
	}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
