package tui

import "testing"

func TestBuildStyledRunesCursor(t *testing.T) {
	target := []rune("ab")
	input := []rune("a")
	cursorIndex := len(input)

	runes := buildStyledRunes(target, input, cursorIndex)
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[1].s != currentWordStyle.Underline(true).Render("b") {
		t.Fatalf("expected cursor style for second rune")
	}
}

func TestBuildStyledRunesNoCursorWhenComplete(t *testing.T) {
	runes := buildStyledRunes([]rune("a"), []rune("a"), -1)
	if len(runes) != 1 {
		t.Fatalf("expected 1 rune, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for completed rune")
	}
}

func TestBuildStyledRunesKeepsTargetOnMistype(t *testing.T) {
	runes := buildStyledRunes([]rune("ab"), []rune("ax"), 2)
	if runes[1].s != incorrectStyle.Render("b") {
		t.Fatalf("expected incorrect style showing the target rune")
	}
}

func TestBuildStyledRunesWordHighlighting(t *testing.T) {
	target := []rune("one two")
	runes := buildStyledRunes(target, []rune("on"), 2)
	if runes[2].s != currentWordStyle.Underline(true).Render("e") {
		t.Fatalf("expected cursor in current word")
	}
	if runes[4].s != pendingStyle.Render("t") {
		t.Fatalf("expected pending style for next word")
	}
}

func TestBuildStyledRunesWrongSpaceGlyph(t *testing.T) {
	runes := buildStyledRunes([]rune("a b"), []rune("ax"), 2)
	if runes[1].s != incorrectStyle.Render("•") {
		t.Fatalf("expected marker for wrong space")
	}
}

func plainRunes(text string) []styledRune {
	out := make([]styledRune, 0, len(text))
	for i, r := range []rune(text) {
		out = append(out, styledRune{s: string(r), width: 1, index: i, isSpace: r == ' '})
	}
	return out
}

func lineStrings(lines [][]styledRune) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = renderStyledRunes(line)
	}
	return out
}

func TestWrapLinesBreaksAtSpaces(t *testing.T) {
	got := lineStrings(wrapLines(plainRunes("abc defgh ij"), 5))
	want := []string{"abc ", "defgh ", "ij"}
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestWrapLinesHardBreaksLongWords(t *testing.T) {
	got := lineStrings(wrapLines(plainRunes("abcdefg"), 3))
	if len(got) != 3 || got[0] != "abc" || got[2] != "g" {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestWrapLinesNoWidth(t *testing.T) {
	got := lineStrings(wrapLines(plainRunes("abc def"), 0))
	if len(got) != 1 || got[0] != "abc def" {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestVisibleWindowFollowsCursor(t *testing.T) {
	lines := wrapLines(plainRunes("aa bb cc dd ee ff"), 3)
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %q", lineStrings(lines))
	}
	got := lineStrings(visibleWindow(lines, 0, 2))
	if got[0] != "aa " || got[1] != "bb " {
		t.Fatalf("unexpected window at start: %q", got)
	}
	got = lineStrings(visibleWindow(lines, 9, 2))
	if got[0] != "cc " || got[1] != "dd " {
		t.Fatalf("unexpected window in the middle: %q", got)
	}
	got = lineStrings(visibleWindow(lines, 16, 3))
	if got[2] != "ff" {
		t.Fatalf("unexpected window at end: %q", got)
	}
}
