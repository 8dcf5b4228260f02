// Package match evaluates message text against phrase and regex rule
// lists. It never fails on user-supplied input: a stored pattern that no
// longer compiles is skipped so the remaining rules keep working.
package match

import (
	"log/slog"
	"regexp"
	"strings"
)

// Mode selects how a phrase is compared against message text.
type Mode string

const (
	ModeContains   Mode = "contains"
	ModeExact      Mode = "exact"
	ModeStartsWith Mode = "startswith"
	ModeEndsWith   Mode = "endswith"
)

// ParseMode maps a config string to a Mode. Unknown values fall back to
// ModeContains, the same default the stored config ships with.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeExact:
		return ModeExact
	case ModeStartsWith:
		return ModeStartsWith
	case ModeEndsWith:
		return ModeEndsWith
	default:
		return ModeContains
	}
}

// Engine runs phrase and regex scans. Methods have no side effects beyond
// logging and are safe for concurrent use.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates an Engine that logs skipped patterns to logger.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{log: logger}
}

// Phrase reports whether text matches any phrase in the list under the
// given mode. Scanning short-circuits on the first hit in list order.
// Empty text, an empty list, and empty list entries never match.
func (e *Engine) Phrase(text string, phrases []string, mode Mode, caseSensitive bool) bool {
	if text == "" || len(phrases) == 0 {
		return false
	}

	checkText := text
	if !caseSensitive {
		checkText = strings.ToLower(text)
	}

	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		checkPhrase := phrase
		if !caseSensitive {
			checkPhrase = strings.ToLower(phrase)
		}

		switch mode {
		case ModeExact:
			if checkText == checkPhrase {
				return true
			}
		case ModeStartsWith:
			if strings.HasPrefix(checkText, checkPhrase) {
				return true
			}
		case ModeEndsWith:
			if strings.HasSuffix(checkText, checkPhrase) {
				return true
			}
		default:
			if strings.Contains(checkText, checkPhrase) {
				return true
			}
		}
	}

	return false
}

// Regex reports whether text matches any pattern in the list. Scanning
// short-circuits on the first hit. Case-insensitivity is applied with the
// (?i) flag rather than by lowercasing text, so pattern semantics such as
// character classes and captures are preserved. A pattern that fails to
// compile is skipped with a debug log and never aborts the scan.
func (e *Engine) Regex(text string, patterns []string, caseSensitive bool) bool {
	if text == "" || len(patterns) == 0 {
		return false
	}

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		src := pattern
		if !caseSensitive {
			src = "(?i)" + src
		}
		re, err := regexp.Compile(src)
		if err != nil {
			e.log.Debug("skipping stored pattern that no longer compiles", "pattern", pattern, "err", err)
			continue
		}
		if re.MatchString(text) {
			return true
		}
	}

	return false
}
