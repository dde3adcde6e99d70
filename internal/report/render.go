package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/spigell/resume-matcher/internal/matcher"
)

const (
	NoOverlapsText = "No overlaps detected."
	NoGapsText     = "No obvious gaps found."

	progressCells = 40
)

// Meta is what the client knows about a result beyond the response body.
type Meta struct {
	Latency    time.Duration
	HasLatency bool
	AnalyzedAt time.Time
}

// AnalyzedLabel is "Analyzed • 1,234 ms" when the latency is known.
func (m Meta) AnalyzedLabel() string {
	if !m.HasLatency {
		return "Analyzed"
	}
	return "Analyzed • " + FormatLatency(m.Latency)
}

var (
	headingColor = color.New(color.Bold)
	mutedColor   = color.New(color.Faint)
	badgeColor   = color.New(color.FgCyan)
	missingColor = color.New(color.FgYellow)
	barColor     = color.New(color.FgGreen)

	toneColors = map[Tone]*color.Color{
		ToneGood: color.New(color.FgGreen, color.Bold),
		ToneOK:   color.New(color.FgCyan, color.Bold),
		ToneWarn: color.New(color.FgYellow, color.Bold),
		ToneBad:  color.New(color.FgRed, color.Bold),
	}
)

// Render writes a human-readable report of the result.
func Render(w io.Writer, r *matcher.Result, meta Meta) error {
	if r == nil {
		_, err := mutedColor.Fprintln(w, "Results will appear here after you analyze a resume + job description.")
		return err
	}

	fit := Fit(r.Score)
	rw := &errWriter{w: w}

	rw.printf(headingColor, "%d%% Match Score", Percent(r.Score))
	rw.printf(nil, "  ")
	rw.printf(toneColors[fit.Tone], "Fit: %s", fit.Label)
	rw.printf(mutedColor, "  %s\n", meta.AnalyzedLabel())

	filled := ProgressWidth(r.Score) * progressCells / 100
	rw.printf(barColor, "[%s", strings.Repeat("#", filled))
	rw.printf(mutedColor, "%s]\n", strings.Repeat(".", progressCells-filled))

	rw.printf(nil, "Semantic: %d%%   Skills Overlap: %d%%", Percent(r.SemanticPct), Percent(r.OverlapPct))
	if !meta.AnalyzedAt.IsZero() {
		rw.printf(nil, "   Local time: %s", meta.AnalyzedAt.Local().Format(time.TimeOnly))
	}
	rw.printf(nil, "\n")

	rw.section("Overlapping Skills")
	rw.badges(r.TopOverlapSkills, badgeColor, NoOverlapsText)

	rw.section("Missing Skills")
	rw.badges(r.MissingSkills, missingColor, NoGapsText)

	if len(r.Strengths) > 0 {
		rw.section("Strengths")
		rw.list(r.Strengths)
	}

	if len(r.Suggestions) > 0 {
		rw.section("Suggestions (resume-ready)")
		rw.list(r.Suggestions)
	}

	if r.CoverLetter != "" {
		rw.section("Cover Letter")
		rw.printf(nil, "%s\n", strings.TrimRight(r.CoverLetter, "\n"))
	}

	return rw.err
}

// errWriter keeps the first write error so Render can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(c *color.Color, format string, args ...any) {
	if e.err != nil {
		return
	}
	if c == nil {
		_, e.err = fmt.Fprintf(e.w, format, args...)
		return
	}
	_, e.err = c.Fprintf(e.w, format, args...)
}

func (e *errWriter) section(title string) {
	e.printf(nil, "\n")
	e.printf(headingColor, "%s\n", title)
}

func (e *errWriter) badges(items []string, c *color.Color, empty string) {
	if len(items) == 0 {
		e.printf(mutedColor, "%s\n", empty)
		return
	}
	for i, item := range items {
		if i > 0 {
			e.printf(nil, " ")
		}
		e.printf(c, "[%s]", item)
	}
	e.printf(nil, "\n")
}

func (e *errWriter) list(items []string) {
	for _, item := range items {
		e.printf(nil, "  - %s\n", item)
	}
}
