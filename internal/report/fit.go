package report

import (
	"math"
	"strconv"
	"time"
)

// Tone is the color family of the fit chip.
type Tone string

const (
	ToneGood Tone = "good"
	ToneOK   Tone = "ok"
	ToneWarn Tone = "warn"
	ToneBad  Tone = "bad"
)

// FitInfo is the qualitative reading of a match score.
type FitInfo struct {
	Label string
	Tone  Tone
}

// Fit maps a score to its label using fixed thresholds.
func Fit(score float64) FitInfo {
	switch {
	case score >= 85:
		return FitInfo{Label: "Excellent", Tone: ToneGood}
	case score >= 70:
		return FitInfo{Label: "Strong", Tone: ToneOK}
	case score >= 50:
		return FitInfo{Label: "Medium", Tone: ToneWarn}
	default:
		return FitInfo{Label: "Low", Tone: ToneBad}
	}
}

// Percent rounds half up, so 49.5 shows as 50 and -0.5 as 0. Values beyond
// the int range saturate instead of wrapping.
func Percent(v float64) int {
	if math.IsNaN(v) {
		return 0
	}

	r := math.Floor(v + 0.5)
	switch {
	case r >= math.MaxInt:
		return math.MaxInt
	case r <= math.MinInt:
		return math.MinInt
	}
	return int(r)
}

// ProgressWidth is the rounded score clamped to [0, 100].
func ProgressWidth(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Min(100, math.Max(0, math.Floor(score+0.5))))
}

// FormatLatency renders a duration as whole milliseconds with thousands
// separators, e.g. "1,234 ms".
func FormatLatency(d time.Duration) string {
	ms := Percent(float64(d) / float64(time.Millisecond))
	return groupThousands(ms) + " ms"
}

func groupThousands(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.Itoa(n)
	if len(digits) <= 3 {
		return sign + digits
	}

	head := len(digits) % 3
	out := make([]byte, 0, len(digits)+len(digits)/3)
	if head > 0 {
		out = append(out, digits[:head]...)
	}
	for i := head; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i:i+3]...)
	}

	return sign + string(out)
}
