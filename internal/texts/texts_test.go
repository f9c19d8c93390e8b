package texts

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"
)

func TestBuiltin(t *testing.T) {
	prompts := Builtin()
	if len(prompts) != 10 {
		t.Fatalf("expected 10 prompts, got %d", len(prompts))
	}
	prompts[0] = "changed"
	if Builtin()[0] == "changed" {
		t.Fatalf("expected Builtin to return a copy")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.txt")
	content := "first   prompt here\n\n  second\tprompt \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	prompts, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(prompts) != 2 || prompts[0] != "first prompt here" || prompts[1] != "second prompt" {
		t.Fatalf("unexpected prompts: %q", prompts)
	}
}

func TestLoadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("\n  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for empty file")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestPickerAvoidsRepeat(t *testing.T) {
	p := NewSeededPicker([]string{"a", "b", "c"}, 1)
	prev := p.Next()
	for i := 0; i < 100; i++ {
		next := p.Next()
		if next == prev {
			t.Fatalf("picked %q twice in a row", next)
		}
		prev = next
	}
}

func TestPickerSinglePrompt(t *testing.T) {
	p := NewSeededPicker([]string{"only"}, 1)
	if p.Next() != "only" || p.Next() != "only" {
		t.Fatalf("expected the single prompt to repeat")
	}
}

func TestPickerJoin(t *testing.T) {
	p := NewSeededPicker([]string{"abc", "defg"}, 7)
	got := p.Join(20)
	if utf8.RuneCountInString(got) < 20 {
		t.Fatalf("expected at least 20 runes, got %q", got)
	}
	if got := p.Join(0); got == "" {
		t.Fatalf("expected at least one prompt")
	}
}
