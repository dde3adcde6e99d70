package matcher

import (
	"context"
	"fmt"

	"github.com/spigell/resume-matcher/internal/resume"
)

// TextMode scores a resume through /api/match_text: the PDF text is extracted
// locally and only the text leaves the machine.
type TextMode struct {
	Client *Client
}

func (t *TextMode) Match(ctx context.Context, r *Request) (*Result, error) {
	if r == nil || r.Resume == nil {
		return nil, ErrNoResume
	}

	text, err := resume.ExtractText(r.Resume)
	if err != nil {
		return nil, fmt.Errorf("extract resume text: %w", err)
	}

	return t.Client.MatchText(ctx, &TextRequest{
		ResumeText:     text,
		JobDescription: r.JobDescription,
		Detailed:       r.Detailed,
	})
}
