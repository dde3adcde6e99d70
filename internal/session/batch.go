package session

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/resume-matcher/internal/matcher"
	"github.com/spigell/resume-matcher/internal/resume"
)

// BatchItem is the outcome for one resume of a batch.
type BatchItem struct {
	Path    string
	Result  *matcher.Result
	Error   string
	Latency time.Duration
}

// Batch scores many resumes against one job description, strictly one
// request at a time. Limiter, when set, paces the requests.
type Batch struct {
	Scorer         Scorer
	Limiter        *rate.Limiter
	JobDescription string
	Detailed       bool
	MaxMB          int
	Logger         *zap.Logger
	// Load opens a resume by path; resume.Load when nil.
	Load func(path string) (*resume.File, error)
}

// Run processes paths in order. A bad file is recorded and skipped; only a
// cancelled context stops the batch early.
func (b *Batch) Run(ctx context.Context, paths []string) ([]BatchItem, error) {
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}
	load := b.Load
	if load == nil {
		load = resume.Load
	}

	items := make([]BatchItem, 0, len(paths))
	for i, path := range paths {
		if b.Limiter != nil {
			if err := b.Limiter.Wait(ctx); err != nil {
				return items, err
			}
		}

		item := BatchItem{Path: path}
		form := New(b.MaxMB, log.With(zap.String("resume_path", path)))
		form.SetJobDescription(b.JobDescription)
		form.SetDetailed(b.Detailed)

		file, err := load(path)
		switch {
		case err != nil:
			item.Error = err.Error()
		case form.SetFile(file, resume.SourceBrowse) != nil:
			item.Error = form.Error()
		default:
			err = form.Submit(ctx, b.Scorer)
			state := form.State()
			item.Result = state.Result
			item.Latency = state.Latency
			item.Error = state.Error
			if err != nil && ctx.Err() != nil {
				items = append(items, item)
				return items, ctx.Err()
			}
		}

		log.Info("batch progress",
			zap.Int("done", i+1),
			zap.Int("total", len(paths)),
			zap.String("resume_path", path),
			zap.Bool("ok", item.Result != nil),
		)

		items = append(items, item)
	}

	return items, nil
}

// SortByScore puts scored resumes first, best score first, then by path.
func SortByScore(items []BatchItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if (a.Result != nil) != (b.Result != nil) {
			return a.Result != nil
		}
		if a.Result != nil && a.Result.Score != b.Result.Score {
			return a.Result.Score > b.Result.Score
		}
		return a.Path < b.Path
	})
}

// ListResumes walks dir and returns every .pdf and .docx file, sorted.
func ListResumes(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".pdf", ".docx":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
