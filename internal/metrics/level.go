package metrics

// PerformanceLevel is a named speed band.
type PerformanceLevel struct {
	Label string
	Icon  string
	Color string
}

var levels = []struct {
	maxWPM int
	level  PerformanceLevel
}{
	{30, PerformanceLevel{Label: "Beginner", Icon: "●", Color: "#EF4444"}},
	{50, PerformanceLevel{Label: "Average", Icon: "●", Color: "#EAB308"}},
	{70, PerformanceLevel{Label: "Good", Icon: "●", Color: "#22C55E"}},
	{100, PerformanceLevel{Label: "Pro", Icon: "●", Color: "#3B82F6"}},
}

var elite = PerformanceLevel{Label: "Elite", Icon: "●", Color: "#A855F7"}

// Level returns the band for a net WPM value.
func Level(wpm int) PerformanceLevel {
	for _, l := range levels {
		if wpm <= l.maxWPM {
			return l.level
		}
	}
	return elite
}
