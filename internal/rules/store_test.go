package rules

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Load(filepath.Join(t.TempDir(), "config.toml"))
	return s
}

func TestLoadCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Load(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected rule file to exist after load: %v", err)
	}
	if !strings.Contains(string(data), "[phrases]") {
		t.Error("expected default config to contain a phrases section")
	}
	if got := s.Phrases(); len(got) != 0 {
		t.Errorf("expected empty phrase list, got %v", got)
	}
}

func TestLoadMissingDirStillWorks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.toml")
	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Load(path)

	if !s.AddPhrase("spam") {
		t.Fatal("expected add to succeed with a created parent dir")
	}
}

func TestAddPhraseThenList(t *testing.T) {
	s := testStore(t)

	if !s.AddPhrase("spam") {
		t.Fatal("expected first add to succeed")
	}

	count := 0
	for _, p := range s.Phrases() {
		if p == "spam" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected phrase to appear exactly once, got %d", count)
	}
}

func TestAddPhraseDuplicateRejected(t *testing.T) {
	s := testStore(t)

	if !s.AddPhrase("spam") {
		t.Fatal("expected first add to succeed")
	}
	if s.AddPhrase("spam") {
		t.Error("expected duplicate add to return false")
	}
	if got := len(s.Phrases()); got != 1 {
		t.Errorf("expected one phrase, got %d", got)
	}
}

func TestAddEmptyPhraseRejected(t *testing.T) {
	if testStore(t).AddPhrase("") {
		t.Error("expected empty phrase to be rejected")
	}
}

func TestDeletePhraseAbsent(t *testing.T) {
	s := testStore(t)
	s.AddPhrase("spam")

	if s.DeletePhrase("ham") {
		t.Error("expected delete of absent phrase to return false")
	}
	if got := len(s.Phrases()); got != 1 {
		t.Errorf("expected list unchanged, got %d entries", got)
	}
}

func TestDeletePhrasePresent(t *testing.T) {
	s := testStore(t)
	s.AddPhrase("spam")

	if !s.DeletePhrase("spam") {
		t.Fatal("expected delete to succeed")
	}
	if got := len(s.Phrases()); got != 0 {
		t.Errorf("expected empty list, got %d entries", got)
	}
}

func TestPatternsIndependentOfPhrases(t *testing.T) {
	s := testStore(t)
	s.AddPhrase("spam")
	s.AddPattern("^/spam.*")

	if got := len(s.Phrases()); got != 1 {
		t.Errorf("expected one phrase, got %d", got)
	}
	if got := s.Patterns(); len(got) != 1 || got[0] != "^/spam.*" {
		t.Errorf("expected one pattern, got %v", got)
	}
	if !s.DeletePattern("^/spam.*") {
		t.Error("expected pattern delete to succeed")
	}
	if got := len(s.Phrases()); got != 1 {
		t.Error("pattern delete must not touch phrases")
	}
}

func TestInsertionOrderPreserved(t *testing.T) {
	s := testStore(t)
	for _, p := range []string{"c", "a", "b"} {
		s.AddPhrase(p)
	}

	got := s.Phrases()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("expected %d phrases, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUnrelatedKeysSurviveMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	seed := `[plugin]
enabled = true
custom_note = "keep me"

[phrases]
list = ["old"]

[webui]
theme = "dark"
`
	if err := os.WriteFile(path, []byte(seed), 0600); err != nil {
		t.Fatal(err)
	}

	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Load(path)
	if !s.AddPhrase("new") {
		t.Fatal("expected add to succeed")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"keep me", "webui", "dark", "old", "new"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected rewritten file to still contain %q", want)
		}
	}
}

func TestExternalEditVisibleWithoutReload(t *testing.T) {
	s := testStore(t)
	s.AddPhrase("spam")

	// Simulate the host UI rewriting the file between calls.
	seed := "[phrases]\nlist = [\"edited\"]\n"
	if err := os.WriteFile(s.Path(), []byte(seed), 0600); err != nil {
		t.Fatal(err)
	}

	got := s.Phrases()
	if len(got) != 1 || got[0] != "edited" {
		t.Errorf("expected external edit to be visible, got %v", got)
	}
}

func TestUnreadableFileYieldsEmptySet(t *testing.T) {
	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Load(filepath.Join(t.TempDir(), "config.toml"))

	if err := os.WriteFile(s.Path(), []byte("not [ valid toml"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := s.Phrases(); len(got) != 0 {
		t.Errorf("expected empty set for unparsable file, got %v", got)
	}
}

func TestConcurrentAddsNoLostUpdate(t *testing.T) {
	s := testStore(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if !s.AddPhrase(fmt.Sprintf("phrase-%02d", i)) {
				t.Errorf("add %d failed", i)
			}
		}(i)
	}
	wg.Wait()

	if got := len(s.Phrases()); got != n {
		t.Errorf("expected %d phrases after concurrent adds, got %d", n, got)
	}
}

func TestTempFileCleanedUp(t *testing.T) {
	s := testStore(t)
	s.AddPhrase("spam")

	if _, err := os.Stat(s.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("expected temp file to be renamed away after write")
	}
}
