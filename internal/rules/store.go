// Package rules owns the durable phrase and pattern lists inside the
// shared config file. Reads always go back to disk so edits made by the
// host UI or external tooling are visible without a restart; writes
// replace the whole file atomically.
package rules

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/knadh/koanf/parsers/toml"
)

// Section and key names inside the stored TOML document.
const (
	sectionPhrases = "phrases"
	keyPhraseList  = "list"
	sectionRegex   = "regex"
	keyPatternList = "patterns"
)

var parser = toml.Parser()

// Store reads and mutates the rule lists in a single TOML file. Every
// mutation is a full read-modify-write over the shared file, serialized
// by mu so two concurrent adds cannot lose an update. Read-only listing
// does not take the lock and may observe a mid-mutation snapshot.
type Store struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

// New creates a Store. Call Load before using it.
func New(logger *slog.Logger) *Store {
	return &Store{log: logger}
}

// Load sets the backing file path and creates the file with default
// contents when it does not exist, so the file is present and parseable
// from first start. Read errors are logged, never fatal.
func (s *Store) Load(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.path = path
	if _, err := os.Stat(path); err == nil {
		return
	} else if !os.IsNotExist(err) {
		s.log.Warn("rule file not readable", "path", path, "err", err)
		return
	}

	if err := atomicWrite(path, []byte(DefaultConfig)); err != nil {
		s.log.Warn("could not create rule file", "path", path, "err", err)
		return
	}
	s.log.Info("created rule file with defaults", "path", path)
}

// Path returns the backing file path set by Load.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Phrases returns the blocked phrase list, re-read from disk.
func (s *Store) Phrases() []string {
	return stringList(s.read(), sectionPhrases, keyPhraseList)
}

// Patterns returns the regex pattern list, re-read from disk.
func (s *Store) Patterns() []string {
	return stringList(s.read(), sectionRegex, keyPatternList)
}

// AddPhrase appends a phrase and persists the file. Returns false when
// the phrase is empty, already present, or the write failed; in the
// failure case the addition must not be assumed durable.
func (s *Store) AddPhrase(phrase string) bool {
	return s.add(sectionPhrases, keyPhraseList, phrase)
}

// DeletePhrase removes the first exact match of phrase and persists.
// Returns false when the phrase is absent or the write failed.
func (s *Store) DeletePhrase(phrase string) bool {
	return s.remove(sectionPhrases, keyPhraseList, phrase)
}

// AddPattern appends a regex pattern source string. The store does not
// validate that the pattern compiles; callers validate before adding so
// storage stays format-agnostic.
func (s *Store) AddPattern(pattern string) bool {
	return s.add(sectionRegex, keyPatternList, pattern)
}

// DeletePattern removes the first exact match of pattern and persists.
func (s *Store) DeletePattern(pattern string) bool {
	return s.remove(sectionRegex, keyPatternList, pattern)
}

func (s *Store) add(section, key, value string) bool {
	if value == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	list := stringList(doc, section, key)
	for _, v := range list {
		if v == value {
			return false
		}
	}
	setStringList(doc, section, key, append(list, value))

	if err := s.write(doc); err != nil {
		s.log.Error("persisting rule file failed", "path", s.path, "err", err)
		return false
	}
	return true
}

func (s *Store) remove(section, key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	list := stringList(doc, section, key)
	idx := -1
	for i, v := range list {
		if v == value {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	setStringList(doc, section, key, append(list[:idx:idx], list[idx+1:]...))

	if err := s.write(doc); err != nil {
		s.log.Error("persisting rule file failed", "path", s.path, "err", err)
		return false
	}
	return true
}

// read parses the whole stored document. Fail-soft: a missing or
// unreadable file yields an empty document so filtering and commands
// degrade instead of crashing the host.
func (s *Store) read() map[string]interface{} {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("reading rule file failed", "path", s.path, "err", err)
		}
		return map[string]interface{}{}
	}

	doc, err := parser.Unmarshal(data)
	if err != nil {
		s.log.Warn("parsing rule file failed", "path", s.path, "err", err)
		return map[string]interface{}{}
	}
	return doc
}

// write re-marshals the whole document, keeping keys this store does not
// own, and replaces the file atomically.
func (s *Store) write(doc map[string]interface{}) error {
	data, err := parser.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal rule file: %w", err)
	}
	return atomicWrite(s.path, data)
}

// atomicWrite writes data to a temp file in the target directory and
// renames it over path, so a crash mid-write never leaves the file
// unparsable.
func atomicWrite(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create rule dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace rule file: %w", err)
	}
	return nil
}

// stringList extracts doc[section][key] as a string slice, tolerating a
// missing section, a missing key, or entries of the wrong type.
func stringList(doc map[string]interface{}, section, key string) []string {
	sec, ok := doc[section].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := sec[key].([]interface{})
	if !ok {
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// setStringList stores values at doc[section][key], creating the section
// when absent.
func setStringList(doc map[string]interface{}, section, key string, values []string) {
	sec, ok := doc[section].(map[string]interface{})
	if !ok {
		sec = map[string]interface{}{}
		doc[section] = sec
	}

	raw := make([]interface{}, len(values))
	for i, v := range values {
		raw[i] = v
	}
	sec[key] = raw
}
