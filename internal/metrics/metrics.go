// Package metrics turns a keystroke snapshot into typing speed and accuracy figures.
package metrics

import (
	"math"
	"time"

	"github.com/verte-zerg/ttj/internal/model"
)

const (
	// CharsPerWord is the standard word length used for WPM.
	CharsPerWord = 5.0
	// MinElapsed is the shortest span that produces non-zero speed figures.
	MinElapsed = time.Second
)

// Compute returns the metrics for input typed against reference between start and end.
// Comparison is positional by rune; there is no alignment.
func Compute(reference, input string, start, end time.Time) model.TypingResult {
	elapsed := end.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	typed := []rune(input)
	errors := CountErrors([]rune(reference), typed)

	result := model.TypingResult{
		Errors:   errors,
		Duration: elapsed.Seconds(),
		Input:    input,
	}
	if elapsed < MinElapsed || len(typed) == 0 {
		return result
	}

	minutes := elapsed.Seconds() / 60
	total := float64(len(typed))
	gross := roundHalfUp((total / CharsPerWord) / minutes)
	net := roundHalfUp(gross - float64(errors)/minutes)
	if net < 0 {
		net = 0
	}
	result.GrossWPM = int(gross)
	result.NetWPM = int(net)
	result.Accuracy = Round2((total - float64(errors)) / total * 100)
	return result
}

// CountErrors counts positions where typed differs from reference.
func CountErrors(reference, typed []rune) int {
	errors := 0
	for i, r := range typed {
		if i >= len(reference) || r != reference[i] {
			errors++
		}
	}
	return errors
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundHalfUp rounds halves toward positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
