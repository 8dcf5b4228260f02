package intercept

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/VictoriaMetrics/metrics"

	"github.com/ppiankov/phrasegate/internal/config"
)

func testHandler(snapshot config.SnapshotFunc) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(snapshot, logger, metrics.NewSet())
}

func snap(mutate func(*config.Settings)) config.SnapshotFunc {
	return func() (*config.Settings, error) {
		s := config.Defaults()
		mutate(s)
		return s, nil
	}
}

func TestDisabledPluginPassesThrough(t *testing.T) {
	h := testHandler(snap(func(s *config.Settings) {
		s.Plugin.Enabled = false
		s.Phrases.List = []string{"spam"}
	}))

	res := h.Check(Message{Text: "spam"})
	if !res.Success || !res.Continue {
		t.Errorf("disabled plugin must pass everything through, got %+v", res)
	}
}

func TestEmptyTextPassesThrough(t *testing.T) {
	h := testHandler(snap(func(s *config.Settings) {
		s.Phrases.List = []string{"spam"}
	}))

	res := h.Check(Message{Text: ""})
	if !res.Continue {
		t.Errorf("empty text must pass through, got %+v", res)
	}
}

func TestPhraseHitStopsPropagation(t *testing.T) {
	h := testHandler(snap(func(s *config.Settings) {
		s.Phrases.List = []string{"spam"}
	}))

	res := h.Check(Message{Text: "buy spam now"})
	if res.Continue {
		t.Fatal("expected message to be stopped")
	}
	if !res.Success || res.Reason != ReasonPhrase {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRegexHitStopsPropagation(t *testing.T) {
	h := testHandler(snap(func(s *config.Settings) {
		s.Regex.Patterns = []string{"^/spam.*"}
	}))

	res := h.Check(Message{Text: "/spam now"})
	if res.Continue || res.Reason != ReasonRegex {
		t.Errorf("unexpected result: %+v", res)
	}

	res = h.Check(Message{Text: "not spam"})
	if !res.Continue {
		t.Errorf("non-matching text must pass, got %+v", res)
	}
}

func TestPhraseTakesPriorityOverRegex(t *testing.T) {
	h := testHandler(snap(func(s *config.Settings) {
		s.Phrases.List = []string{"spam"}
		s.Regex.Patterns = []string{"spam"}
	}))

	res := h.Check(Message{Text: "spam"})
	if res.Reason != ReasonPhrase {
		t.Errorf("phrase evaluation must win the reported reason, got %q", res.Reason)
	}
}

func TestDisabledPhraseStageSkipped(t *testing.T) {
	h := testHandler(snap(func(s *config.Settings) {
		s.Phrases.Enabled = false
		s.Phrases.List = []string{"spam"}
		s.Regex.Patterns = []string{"^never$"}
	}))

	res := h.Check(Message{Text: "spam"})
	if !res.Continue {
		t.Errorf("disabled phrase stage must not block, got %+v", res)
	}
}

func TestMalformedStoredPatternDoesNotDisableOthers(t *testing.T) {
	h := testHandler(snap(func(s *config.Settings) {
		s.Regex.Patterns = []string{"(", "spam"}
	}))

	res := h.Check(Message{Text: "spam"})
	if res.Continue {
		t.Error("valid pattern after a malformed one must still match")
	}
}

func TestSnapshotErrorFailsOpen(t *testing.T) {
	h := testHandler(func() (*config.Settings, error) {
		return nil, errors.New("config unreadable")
	})

	res := h.Check(Message{Text: "spam"})
	if !res.Success || !res.Continue {
		t.Errorf("unreadable settings must degrade to pass-through, got %+v", res)
	}
}
