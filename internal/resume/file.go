package resume

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// DefaultMaxSizeMB is the upload ceiling used when nothing else is configured.
	DefaultMaxSizeMB = 5
)

// File is a resume selected for upload. It lives only in memory (or points to a
// file on disk) and is never persisted by this program.
type File struct {
	Name        string
	ContentType string
	Size        int64

	open func() (io.ReadCloser, error)
}

// New returns a File backed by the given bytes.
func New(name, contentType string, data []byte) *File {
	return &File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Load describes a resume on disk. The content type is sniffed from the file
// content; the data itself is read only when the file is opened.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat resume %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("resume %q is a directory", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect resume type %q: %w", path, err)
	}

	return &File{
		Name:        filepath.Base(path),
		ContentType: mtype.String(),
		Size:        info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FromHeader builds a File from an uploaded multipart part using the content
// type declared by the client. Parts larger than limit are not read: the
// returned File still reports the real size so validation can reject it.
func FromHeader(fh *multipart.FileHeader, limit int64) (*File, error) {
	f := &File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		open: func() (io.ReadCloser, error) {
			return nil, ErrTooLarge
		},
	}

	if limit > 0 && fh.Size > limit {
		return f, nil
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded resume: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read uploaded resume: %w", err)
	}

	return New(f.Name, f.ContentType, data), nil
}

// Open returns the resume content.
func (f *File) Open() (io.ReadCloser, error) {
	if f == nil || f.open == nil {
		return nil, fmt.Errorf("resume has no content")
	}
	return f.open()
}

// Bytes reads the whole resume content.
func (f *File) Bytes() ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// MediaType returns the content type without parameters, lowercased.
func (f *File) MediaType() string {
	if f == nil {
		return ""
	}
	mt, _, _ := strings.Cut(f.ContentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// SizeMB formats the size in megabytes with two decimals.
func (f *File) SizeMB() string {
	if f == nil {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(f.Size)/(1024*1024))
}
