package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/matcher"
	"github.com/spigell/resume-matcher/internal/resume"
	"github.com/spigell/resume-matcher/internal/utils"
)

const (
	MissingInputMessage = "Please upload a resume and paste a job description."

	// SampleJobDescription is offered to users who just want to try the tool.
	SampleJobDescription = `We’re hiring a Python Backend Engineer with experience in SQL, Docker, and AWS.
Responsibilities include building REST APIs, integrating data stores, and deploying services with CI/CD.`
)

var (
	// ErrBusy is returned while a request is in flight.
	ErrBusy = errors.New("analysis already in progress")
	// ErrIncomplete is returned by Submit when the resume or description is missing.
	ErrIncomplete = errors.New("resume and job description are required")
)

// Scorer sends one match request. *matcher.Client and *matcher.TextMode implement it.
type Scorer interface {
	Match(ctx context.Context, r *matcher.Request) (*matcher.Result, error)
}

// Form holds the state of one analysis page: the inputs, the request in
// flight and the last outcome. Only one request runs at a time.
type Form struct {
	mu sync.Mutex

	maxMB  int
	logger *zap.Logger
	now    func() time.Time

	file           *resume.File
	jobDescription string
	detailed       bool

	loading    bool
	err        string
	result     *matcher.Result
	latency    time.Duration
	hasLatency bool
	analyzedAt time.Time
}

// State is a point-in-time copy of a Form used for rendering.
type State struct {
	File           *resume.File
	JobDescription string
	Detailed       bool
	Loading        bool
	Error          string
	Result         *matcher.Result
	Latency        time.Duration
	HasLatency     bool
	AnalyzedAt     time.Time
	MaxMB          int
}

// CanAnalyze mirrors the enabled state of the submit button.
func (s State) CanAnalyze() bool {
	return s.File != nil && strings.TrimSpace(s.JobDescription) != "" && !s.Loading
}

func New(maxMB int, logger *zap.Logger) *Form {
	if maxMB <= 0 {
		maxMB = resume.DefaultMaxSizeMB
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Form{
		maxMB:  maxMB,
		logger: logger,
		now:    time.Now,
	}
}

// SetFile validates and stores a resume. A rejected file leaves the stored
// one untouched and sets the error message; an accepted one clears it.
func (f *Form) SetFile(file *resume.File, src resume.Source) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := resume.Validate(file, resume.MaxBytes(f.maxMB)); err != nil {
		f.err = resume.Message(err, src, f.maxMB)
		f.logger.Debug("resume rejected", zap.Error(err))
		return err
	}

	f.err = ""
	f.file = file
	f.logger.Debug("resume accepted",
		zap.String("resume", file.Name),
		zap.Int64("resume_size", file.Size),
	)

	return nil
}

// RemoveFile drops the stored resume only.
func (f *Form) RemoveFile() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.file = nil
}

func (f *Form) SetJobDescription(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.jobDescription = text
}

func (f *Form) LoadSampleJD() {
	f.SetJobDescription(SampleJobDescription)
}

func (f *Form) SetDetailed(detailed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.detailed = detailed
}

// Reset clears every input and output at once. It is refused while a request
// is in flight.
func (f *Form) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loading {
		return ErrBusy
	}

	f.file = nil
	f.jobDescription = ""
	f.detailed = false
	f.clearOutcome()
	f.err = ""

	return nil
}

// Submit sends the current inputs to the scorer. The previous error and
// result are cleared first. Missing inputs stop before any network call.
func (f *Form) Submit(ctx context.Context, scorer Scorer) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}

	f.err = ""
	f.clearOutcome()

	if f.file == nil || strings.TrimSpace(f.jobDescription) == "" {
		f.err = MissingInputMessage
		f.mu.Unlock()
		return ErrIncomplete
	}

	req := &matcher.Request{
		Resume:         f.file,
		JobDescription: f.jobDescription,
		Detailed:       f.detailed,
	}
	f.loading = true
	now := f.now
	f.mu.Unlock()

	f.logger.Info("analyzing resume",
		zap.String("resume", req.Resume.Name),
		zap.Bool("detailed", req.Detailed),
		zap.String("job_description_preview", utils.TruncateForLog(req.JobDescription, 80)),
	)

	started := now()
	result, err := scorer.Match(ctx, req)
	elapsed := now().Sub(started)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.loading = false

	if err != nil {
		f.err = matcher.UserMessage(err)
		f.logger.Warn("analysis failed", zap.Error(err), zap.Duration("latency", elapsed))
		return err
	}

	f.result = result
	f.analyzedAt = now()
	f.latency = elapsed
	f.hasLatency = true

	f.logger.Info("analysis finished",
		zap.Float64("score", result.Score),
		zap.Duration("latency", elapsed),
	)

	return nil
}

func (f *Form) clearOutcome() {
	f.result = nil
	f.latency = 0
	f.hasLatency = false
	f.analyzedAt = time.Time{}
}

// SetError replaces the inline message, e.g. when an upload could not be read.
func (f *Form) SetError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.err = msg
}

// Error is the single inline message, empty when there is none.
func (f *Form) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.err
}

// Result returns the last successful result or nil.
func (f *Form) Result() *matcher.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.result
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return State{
		File:           f.file,
		JobDescription: f.jobDescription,
		Detailed:       f.detailed,
		Loading:        f.loading,
		Error:          f.err,
		Result:         f.result,
		Latency:        f.latency,
		HasLatency:     f.hasLatency,
		AnalyzedAt:     f.analyzedAt,
		MaxMB:          f.maxMB,
	}
}
