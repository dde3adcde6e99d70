package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"

	"github.com/spigell/resume-matcher/internal/matcher"
)

// DefaultJSONName is the file name offered for downloads.
const DefaultJSONName = "match_result.json"

var (
	ErrNoResult      = errors.New("no result to export")
	ErrNoCoverLetter = errors.New("result has no cover letter")
)

var writeClipboard = clipboard.WriteAll

// WriteJSON writes the raw response object indented with two spaces.
func WriteJSON(w io.Writer, r *matcher.Result) error {
	if r == nil {
		return ErrNoResult
	}

	raw := r.Raw
	if len(raw) == 0 {
		var err error
		if raw, err = json.Marshal(r); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("indent result: %w", err)
	}
	buf.WriteByte('\n')

	_, err := buf.WriteTo(w)
	return err
}

// SaveJSON writes the result to path, DefaultJSONName when path is empty,
// and returns the path written.
func SaveJSON(path string, r *matcher.Result) (string, error) {
	if r == nil {
		return "", ErrNoResult
	}
	if path == "" {
		path = DefaultJSONName
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteJSON(f, r); err != nil {
		return "", err
	}

	return path, f.Close()
}

// CopyCoverLetter puts the cover letter on the system clipboard.
func CopyCoverLetter(r *matcher.Result) error {
	if r == nil {
		return ErrNoResult
	}
	if r.CoverLetter == "" {
		return ErrNoCoverLetter
	}

	if err := writeClipboard(r.CoverLetter); err != nil {
		return fmt.Errorf("copy cover letter: %w", err)
	}
	return nil
}
