package matcher

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/resume"
)

const (
	// DefaultAPIURL is used when no base URL is configured.
	DefaultAPIURL = "http://localhost:8080"
	userAgent     = "spigell/resume-matcher"

	matchPath     = "/api/match"
	matchTextPath = "/api/match_text"
	healthPath    = "/health"
	docsPath      = "/docs"
)

type Client struct {
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// Request is one resume/job description pair sent as multipart form data.
type Request struct {
	Resume         *resume.File
	JobDescription string
	Detailed       bool
}

// TextRequest is the JSON variant for resumes whose text was extracted locally.
type TextRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	Detailed       bool   `json:"detailed"`
}

// Health is the backend liveness payload.
type Health struct {
	Status    string `json:"status"`
	EmbedMode string `json:"embed_mode,omitempty"`
}

// New creates a client for the scoring API. The api key is optional and only
// forwarded; the backend decides what it unlocks.
func New(logger *zap.Logger, baseURL, apiKey string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		APIURL: NormalizeBaseURL(baseURL),
		HTTPClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// NormalizeBaseURL strips trailing slashes and falls back to the local default.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return DefaultAPIURL
	}
	return base
}

// IsLocal reports whether the configured base URL is the local default.
func IsLocal(raw string) bool {
	return strings.TrimRight(strings.TrimSpace(raw), "/") == ""
}

// DocsURL points to the interactive API documentation of the backend.
func (c *Client) DocsURL() string {
	return c.APIURL + docsPath
}

// HasAPIKey reports whether requests carry an api key.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Match uploads the resume and job description and returns the parsed result.
func (c *Client) Match(ctx context.Context, r *Request) (*Result, error) {
	return c.postMatch(ctx, r)
}

// MatchText scores already extracted resume text.
func (c *Client) MatchText(ctx context.Context, r *TextRequest) (*Result, error) {
	return c.postMatchText(ctx, r)
}

// Health asks the backend whether it is up.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getJSON(ctx, c.APIURL+healthPath, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
