package resume

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrUnsupportedType = errors.New("unsupported resume file type")
	ErrTooLarge        = errors.New("resume file too large")
)

// Source tells how the user handed the file over. It only changes the wording
// of the rejection message.
type Source int

const (
	SourceBrowse Source = iota
	SourceDrop
)

var allowedName = regexp.MustCompile(`(?i)\.(pdf|docx)$`)

var allowedTypes = map[string]struct{}{
	MimePDF:  {},
	MimeDOCX: {},
}

// MaxBytes converts a megabyte ceiling to bytes.
func MaxBytes(mb int) int64 {
	if mb <= 0 {
		mb = DefaultMaxSizeMB
	}
	return int64(mb) * 1024 * 1024
}

// IsAllowed reports whether the file has a .pdf/.docx name or one of the two
// accepted MIME types. Either is enough.
func IsAllowed(f *File) bool {
	if f == nil {
		return false
	}
	if allowedName.MatchString(f.Name) {
		return true
	}
	_, ok := allowedTypes[f.MediaType()]
	return ok
}

// WithinSize reports whether the file fits into maxBytes. The boundary is inclusive.
func WithinSize(f *File, maxBytes int64) bool {
	if f == nil {
		return false
	}
	return f.Size <= maxBytes
}

// Validate checks the type first and the size second.
func Validate(f *File, maxBytes int64) error {
	if !IsAllowed(f) {
		name := ""
		if f != nil {
			name = f.Name
		}
		return fmt.Errorf("%w: %q", ErrUnsupportedType, name)
	}
	if !WithinSize(f, maxBytes) {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, f.Size, maxBytes)
	}
	return nil
}

// Message returns the user-facing text for a validation error.
func Message(err error, src Source, maxMB int) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedType):
		if src == SourceDrop {
			return "Please drop a .pdf or .docx file."
		}
		return "Please choose a .pdf or .docx file."
	case errors.Is(err, ErrTooLarge):
		if maxMB <= 0 {
			maxMB = DefaultMaxSizeMB
		}
		return fmt.Sprintf("File too large. Max %d MB.", maxMB)
	default:
		return err.Error()
	}
}
