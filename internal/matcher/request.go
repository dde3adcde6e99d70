package matcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	contentTypeJSON = "application/json"
	contentEncoding = "gzip"

	apiKeyHeader = "X-API-Key"

	fieldResume         = "resume_file"
	fieldJobDescription = "job_description"
	fieldDetailed       = "detailed"
)

// GenericMessage is shown when an error carries no text of its own.
const GenericMessage = "Something went wrong"

var (
	ErrNoResume         = errors.New("resume is required")
	ErrNoJobDescription = errors.New("job description is required")
)

// APIError is a non-2xx answer of the scoring API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("Request failed (%d)", e.StatusCode)
}

func (c *Client) postMatch(ctx context.Context, r *Request) (*Result, error) {
	if r == nil || r.Resume == nil {
		return nil, ErrNoResume
	}
	if strings.TrimSpace(r.JobDescription) == "" {
		return nil, ErrNoJobDescription
	}

	body, contentType, err := buildMultipart(r)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+matchPath, body)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("posting match request",
		zap.String("resume", r.Resume.Name),
		zap.Int64("resume_size", r.Resume.Size),
		zap.Int("job_description_length", len(r.JobDescription)),
		zap.Bool("detailed", r.Detailed),
	)

	return c.doResult(req)
}

func (c *Client) postMatchText(ctx context.Context, r *TextRequest) (*Result, error) {
	if r == nil || strings.TrimSpace(r.ResumeText) == "" {
		return nil, ErrNoResume
	}
	if strings.TrimSpace(r.JobDescription) == "" {
		return nil, ErrNoJobDescription
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+matchTextPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentTypeJSON)

	return c.doResult(req)
}

func buildMultipart(r *Request) (*bytes.Buffer, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	src, err := r.Resume.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldResume, r.Resume.Name))
	ct := r.Resume.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err = io.Copy(part, src); err != nil {
		return nil, "", err
	}

	fields := []struct{ key, val string }{
		{fieldJobDescription, r.JobDescription},
		{fieldDetailed, strconv.FormatBool(r.Detailed)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.key, f.val); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &b, w.FormDataContentType(), nil
}

func (c *Client) doResult(req *http.Request) (*Result, error) {
	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	return DecodeResult(data)
}

// do sends the request and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
		c.logger.Debug("scoring api returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Detail),
		)
		return nil, apiErr
	}

	return data, nil
}

func (c *Client) getJSON(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	data, err := c.do(c.setHeaders(req))
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("Accept-Encoding", contentEncoding)
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	return req
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	return io.ReadAll(reader)
}

// parseDetail pulls a string "detail" out of an error body. Anything else
// (no body, not json, structured detail) yields an empty string.
func parseDetail(data []byte) string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	detail, ok := body.Detail.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(detail)
}

// UserMessage turns any submission error into the single inline message shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return GenericMessage
}
