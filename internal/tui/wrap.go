package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const wrongSpaceGlyph = '•'

type styledRune struct {
	s       string
	width   int
	index   int
	isSpace bool
}

func buildStyledRunes(targetRunes, inputRunes []rune, cursorIndex int) []styledRune {
	words := findWords(targetRunes)
	currentWord := wordForCursor(words, cursorIndex)

	out := make([]styledRune, 0, len(targetRunes))
	for i, target := range targetRunes {
		displayed := target
		style := pendingStyle
		if i < len(inputRunes) {
			switch {
			case target == ' ' && inputRunes[i] != ' ':
				displayed = wrongSpaceGlyph
				style = incorrectStyle
			case inputRunes[i] == target:
				style = correctStyle
			default:
				style = incorrectStyle
			}
		} else if target != ' ' && currentWord != nil && i >= currentWord.start && i < currentWord.end {
			style = currentWordStyle
		}
		if i == cursorIndex && i >= len(inputRunes) {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			index:   i,
			isSpace: target == ' ',
		})
	}
	return out
}

type wordRange struct {
	start int
	end   int
}

func findWords(targetRunes []rune) []wordRange {
	words := []wordRange{}
	start := -1
	for i, r := range targetRunes {
		if r == ' ' {
			if start != -1 {
				words = append(words, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, wordRange{start: start, end: len(targetRunes)})
	}
	return words
}

func wordForCursor(words []wordRange, cursorIndex int) *wordRange {
	if len(words) == 0 || cursorIndex < 0 {
		return nil
	}
	for i, w := range words {
		if cursorIndex < w.end {
			return &words[i]
		}
	}
	return nil
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapLines breaks runes into lines no wider than width, preferring spaces.
// The breaking space stays at the end of its line so indices remain contiguous.
func wrapLines(runes []styledRune, width int) [][]styledRune {
	if width <= 0 || len(runes) == 0 {
		return [][]styledRune{runes}
	}
	var lines [][]styledRune
	line := make([]styledRune, 0, width)
	lineWidth := 0
	lastSpaceIdx := -1

	for _, item := range runes {
		if lineWidth+item.width > width && len(line) > 0 && !item.isSpace {
			if lastSpaceIdx >= 0 && lastSpaceIdx < len(line)-1 {
				lines = append(lines, line[:lastSpaceIdx+1])
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
			} else {
				lines = append(lines, line)
				line = []styledRune{}
			}
			lineWidth = lineWidthOf(line)
			lastSpaceIdx = lastSpaceIndex(line)
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
	}
	return append(lines, line)
}

// visibleWindow returns at most maxLines lines keeping the cursor line near the top.
func visibleWindow(lines [][]styledRune, cursorIndex, maxLines int) [][]styledRune {
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}
	cursorLine := len(lines) - 1
	if cursorIndex >= 0 {
		for i, line := range lines {
			if len(line) > 0 && cursorIndex <= line[len(line)-1].index {
				cursorLine = i
				break
			}
		}
	}
	start := max(0, cursorLine-1)
	start = min(start, len(lines)-maxLines)
	return lines[start : start+maxLines]
}

func renderLines(lines [][]styledRune) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = renderStyledRunes(line)
	}
	return strings.Join(out, "\n")
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
