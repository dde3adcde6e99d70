package resume

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrTextUnsupported is returned for resumes whose text cannot be extracted locally.
var ErrTextUnsupported = errors.New("local text extraction supports pdf only")

// IsPDF reports whether the resume is a PDF by name or type.
func IsPDF(f *File) bool {
	if f == nil {
		return false
	}
	return f.MediaType() == MimePDF || strings.HasSuffix(strings.ToLower(f.Name), ".pdf")
}

// ExtractText returns the plain text of a PDF resume, page by page.
func ExtractText(f *File) (string, error) {
	if !IsPDF(f) {
		return "", ErrTextUnsupported
	}

	data, err := f.Bytes()
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// skip broken pages
			continue
		}

		builder.WriteString(text)
		builder.WriteString("\n\n")
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", errors.New("no text content found in pdf")
	}

	return text, nil
}
