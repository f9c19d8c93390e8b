package metrics

import (
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestComputeCountsPositionalErrors(t *testing.T) {
	res := Compute("abc", "abd", t0, t0.Add(10*time.Second))
	if res.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", res.Errors)
	}
	if res.Accuracy != 66.67 {
		t.Fatalf("expected accuracy 66.67, got %v", res.Accuracy)
	}
}

func TestComputeShortSessionIsZero(t *testing.T) {
	res := Compute("hello world", "hellx", t0, t0.Add(500*time.Millisecond))
	if res.GrossWPM != 0 || res.NetWPM != 0 || res.Accuracy != 0 {
		t.Fatalf("expected zero speed figures, got %+v", res)
	}
	if res.Errors != 1 {
		t.Fatalf("expected errors to be counted, got %d", res.Errors)
	}
	if res.Duration != 0.5 {
		t.Fatalf("expected duration 0.5, got %v", res.Duration)
	}
}

func TestComputeEmptyInputIsZero(t *testing.T) {
	res := Compute("hello", "", t0, t0.Add(30*time.Second))
	if res.GrossWPM != 0 || res.NetWPM != 0 || res.Accuracy != 0 || res.Errors != 0 {
		t.Fatalf("unexpected result for empty input: %+v", res)
	}
	if res.Duration != 30 {
		t.Fatalf("expected duration 30, got %v", res.Duration)
	}
}

func TestComputeWPMFormula(t *testing.T) {
	ref := strings.Repeat("a", 60)
	input := strings.Repeat("a", 50)
	res := Compute(ref, input, t0, t0.Add(60*time.Second))
	if res.GrossWPM != 10 || res.NetWPM != 10 {
		t.Fatalf("expected 10/10 wpm, got %d/%d", res.GrossWPM, res.NetWPM)
	}
	if res.Accuracy != 100 {
		t.Fatalf("expected accuracy 100, got %v", res.Accuracy)
	}
	if res.Input != input {
		t.Fatalf("expected input snapshot to be kept")
	}
}

func TestComputeNetWPMPenalizesErrors(t *testing.T) {
	ref := strings.Repeat("a", 100)
	input := strings.Repeat("a", 90) + strings.Repeat("b", 10)
	res := Compute(ref, input, t0, t0.Add(30*time.Second))
	// gross = (100/5)/0.5 = 40, net = 40 - 10/0.5 = 20
	if res.GrossWPM != 40 {
		t.Fatalf("expected gross 40, got %d", res.GrossWPM)
	}
	if res.NetWPM != 20 {
		t.Fatalf("expected net 20, got %d", res.NetWPM)
	}
	if res.Accuracy != 90 {
		t.Fatalf("expected accuracy 90, got %v", res.Accuracy)
	}
}

func TestComputeNetWPMFloorsAtZero(t *testing.T) {
	res := Compute("abcdefghij", "xxxxxxxxxx", t0, t0.Add(2*time.Second))
	if res.NetWPM != 0 {
		t.Fatalf("expected net wpm floored at 0, got %d", res.NetWPM)
	}
	if res.Accuracy != 0 {
		t.Fatalf("expected accuracy 0, got %v", res.Accuracy)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	ref := "The quick brown fox"
	input := "The quick brwn"
	end := t0.Add(7 * time.Second)
	first := Compute(ref, input, t0, end)
	for i := 0; i < 5; i++ {
		if got := Compute(ref, input, t0, end); got != first {
			t.Fatalf("expected identical results, got %+v and %+v", first, got)
		}
	}
}

func TestComputeAccuracyBounds(t *testing.T) {
	ref := "päärynä ja omena"
	inputs := []string{"p", "pä", "xx", "pääry", "päärynä ja omena", "qqqqqqqqqqqqqqqq"}
	for _, in := range inputs {
		res := Compute(ref, in, t0, t0.Add(3*time.Second))
		if res.Accuracy < 0 || res.Accuracy > 100 {
			t.Fatalf("accuracy out of bounds for %q: %v", in, res.Accuracy)
		}
	}
}

func TestComputeCountsRunesNotBytes(t *testing.T) {
	res := Compute("ééééé", "ééééé", t0, t0.Add(60*time.Second))
	if res.GrossWPM != 1 {
		t.Fatalf("expected 5 runes to count as one word, got gross %d", res.GrossWPM)
	}
}

func TestLevelBands(t *testing.T) {
	cases := []struct {
		wpm  int
		want string
	}{
		{0, "Beginner"},
		{30, "Beginner"},
		{31, "Average"},
		{50, "Average"},
		{70, "Good"},
		{100, "Pro"},
		{101, "Elite"},
	}
	for _, c := range cases {
		if got := Level(c.wpm).Label; got != c.want {
			t.Fatalf("Level(%d) = %q, want %q", c.wpm, got, c.want)
		}
	}
}
