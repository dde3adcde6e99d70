package web

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/matcher"
	"github.com/spigell/resume-matcher/internal/resume"
	"github.com/spigell/resume-matcher/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	handler http.Handler
	cookie  *http.Cookie
	calls   *atomic.Int32
}

func newTestEnv(t *testing.T, backend http.HandlerFunc, apiBase string) *testEnv {
	t.Helper()

	calls := &atomic.Int32{}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		backend(w, r)
	}))
	t.Cleanup(api.Close)

	if apiBase == "" {
		apiBase = api.URL
	}

	client := matcher.New(zap.NewNop(), api.URL, "")
	srv, err := New(Config{MaxFileMB: 1, APIBase: apiBase}, client, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	return &testEnv{handler: srv.Handler(), calls: calls}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			e.cookie = c
		}
	}
	return rec
}

func (e *testEnv) page(t *testing.T) string {
	t.Helper()

	rec := e.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	return rec.Body.String()
}

type part struct {
	field, filename, contentType string
	data                         []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, file *part) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + file.field + `"; filename="` + file.filename + `"`}
		h["Content-Type"] = []string{file.contentType}
		pw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		pw.Write(file.data)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func okBackend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"score": 91, "semantic_pct": 80, "overlap_pct": 70,
		"top_overlap_skills": ["python"], "missing_skills": [],
		"strengths": ["SQL"], "suggestions": [], "cover_letter": "Dear team"}`)
}

func TestAnalyzeFlow(t *testing.T) {
	env := newTestEnv(t, okBackend, "")
	env.page(t)

	rec := env.do(t, multipartRequest(t, "/analyze",
		map[string]string{"job_description": "Python backend", "detailed": "true"},
		&part{field: "resume_file", filename: "cv.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4")},
	))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if env.calls.Load() != 1 {
		t.Fatalf("expected one backend call, got %d", env.calls.Load())
	}

	body := env.page(t)
	for _, want := range []string{
		"91%",
		"Fit: Excellent",
		"chip--good",
		"width: 91%",
		"python",
		"No obvious gaps found.",
		"Strengths",
		"Dear team",
		"cv.pdf",
		"Render API",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
	if strings.Contains(body, "Suggestions (resume-ready)") {
		t.Fatalf("empty suggestions must not be rendered")
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/result.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "match_result.json") {
		t.Fatalf("unexpected disposition: %q", rec.Header().Get("Content-Disposition"))
	}
	if !strings.Contains(rec.Body.String(), `"cover_letter": "Dear team"`) {
		t.Fatalf("unexpected download: %s", rec.Body.String())
	}
}

func TestAnalyzeWithoutDescriptionDoesNotCallBackend(t *testing.T) {
	env := newTestEnv(t, okBackend, "")

	env.do(t, multipartRequest(t, "/analyze",
		map[string]string{"job_description": "   "},
		&part{field: "resume_file", filename: "cv.docx", contentType: "application/octet-stream", data: []byte("PK")},
	))

	if env.calls.Load() != 0 {
		t.Fatalf("expected no backend call, got %d", env.calls.Load())
	}
	if body := env.page(t); !strings.Contains(body, "Please upload a resume and paste a job description.") {
		t.Fatalf("expected missing input message")
	}
}

func TestUploadRejections(t *testing.T) {
	env := newTestEnv(t, okBackend, "")

	env.do(t, multipartRequest(t, "/upload",
		map[string]string{"source": "drop"},
		&part{field: "resume_file", filename: "cv.txt", contentType: "text/plain", data: []byte("hi")},
	))
	body := env.page(t)
	if !strings.Contains(body, "Please drop a .pdf or .docx file.") {
		t.Fatalf("expected drop message")
	}
	if strings.Contains(body, "cv.txt") {
		t.Fatalf("rejected file must not be stored")
	}

	env.do(t, multipartRequest(t, "/upload", nil,
		&part{field: "resume_file", filename: "big.pdf", contentType: "application/pdf", data: make([]byte, 1<<20+1)},
	))
	if body := env.page(t); !strings.Contains(body, "File too large. Max 1 MB.") {
		t.Fatalf("expected size message")
	}
}

func TestBackendErrorIsShown(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail": "Unsupported file type. Upload PDF or DOCX."}`)
	}, "")

	env.do(t, multipartRequest(t, "/analyze",
		map[string]string{"job_description": "Go"},
		&part{field: "resume_file", filename: "cv.pdf", contentType: "application/pdf", data: []byte("%PDF")},
	))

	body := env.page(t)
	if !strings.Contains(body, "Unsupported file type. Upload PDF or DOCX.") {
		t.Fatalf("expected backend detail on the page")
	}
	if !strings.Contains(body, "Results will appear here") {
		t.Fatalf("expected results placeholder")
	}
}

func TestResetAndSample(t *testing.T) {
	env := newTestEnv(t, okBackend, "")

	env.do(t, httptest.NewRequest(http.MethodPost, "/sample", nil))
	if body := env.page(t); !strings.Contains(body, "Python Backend Engineer") {
		t.Fatalf("expected sample job description")
	}

	env.do(t, multipartRequest(t, "/analyze",
		map[string]string{"job_description": "Go"},
		&part{field: "resume_file", filename: "cv.pdf", contentType: "application/pdf", data: []byte("%PDF")},
	))
	env.do(t, httptest.NewRequest(http.MethodPost, "/reset", nil))

	body := env.page(t)
	if strings.Contains(body, "cv.pdf") || strings.Contains(body, "Fit:") {
		t.Fatalf("expected reset page")
	}

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/result.json", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without result, got %d", rec.Code)
	}
}

func TestLocalAPILabel(t *testing.T) {
	env := newTestEnv(t, okBackend, " ")

	body := env.page(t)
	if !strings.Contains(body, "Local API") {
		t.Fatalf("expected local api label")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, okBackend, "")
	env.do(t, httptest.NewRequest(http.MethodPost, "/sample", nil))

	other := &testEnv{handler: env.handler, calls: env.calls}
	if body := other.page(t); strings.Contains(body, "Python Backend Engineer") {
		t.Fatalf("sessions must not share state")
	}
}

func urlencodedRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSideActionsKeepTypedInputs(t *testing.T) {
	env := newTestEnv(t, okBackend, "")

	env.do(t, multipartRequest(t, "/upload", nil,
		&part{field: "resume_file", filename: "cv.pdf", contentType: "application/pdf", data: []byte("%PDF")},
	))

	env.do(t, urlencodedRequest("/remove-file", url.Values{
		"job_description": {"Typed Go backend role"},
		"detailed":        {"true"},
	}))

	body := env.page(t)
	if strings.Contains(body, "cv.pdf") {
		t.Fatalf("expected the file to be removed")
	}
	if !strings.Contains(body, "Typed Go backend role") {
		t.Fatalf("typed job description lost after remove")
	}
	if !strings.Contains(body, `name="detailed" value="true" checked`) {
		t.Fatalf("detailed checkbox lost after remove")
	}

	env.do(t, multipartRequest(t, "/sample", map[string]string{
		"job_description": "",
		"detailed":        "true",
	}, nil))

	body = env.page(t)
	if !strings.Contains(body, "Python Backend Engineer") {
		t.Fatalf("expected sample job description")
	}
	if !strings.Contains(body, `name="detailed" value="true" checked`) {
		t.Fatalf("detailed checkbox lost after sample")
	}
}

func TestDropKeepsTypedInputs(t *testing.T) {
	env := newTestEnv(t, okBackend, "")

	env.do(t, multipartRequest(t, "/upload",
		map[string]string{"source": "drop", "job_description": "Pasted Go role", "detailed": "true"},
		&part{field: "resume_file", filename: "cv.docx", contentType: resume.MimeDOCX, data: []byte("PK")},
	))

	body := env.page(t)
	for _, want := range []string{"cv.docx", "Pasted Go role", `name="detailed" value="true" checked`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}

	// an upload without the description field leaves the stored one alone
	env.do(t, multipartRequest(t, "/upload", nil,
		&part{field: "resume_file", filename: "other.pdf", contentType: "application/pdf", data: []byte("%PDF")},
	))
	if body := env.page(t); !strings.Contains(body, "Pasted Go role") {
		t.Fatalf("expected the stored job description to stay")
	}
}

func TestAnalyzeButtonState(t *testing.T) {
	env := newTestEnv(t, okBackend, "")

	disabled := `id="analyze-button" class="button" type="submit" disabled>`
	if body := env.page(t); !strings.Contains(body, disabled) {
		t.Fatalf("expected analyze to be disabled on an empty form")
	}

	env.do(t, multipartRequest(t, "/upload",
		map[string]string{"job_description": "Go"},
		&part{field: "resume_file", filename: "cv.pdf", contentType: "application/pdf", data: []byte("%PDF")},
	))
	if body := env.page(t); strings.Contains(body, disabled) {
		t.Fatalf("expected analyze to be enabled with a file and a description")
	}
}

func TestUnreadableUploadShowsMessage(t *testing.T) {
	client := matcher.New(zap.NewNop(), "", "")
	srv, err := New(Config{MaxFileMB: 1}, client, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/upload", nil)

	form := session.New(1, zap.NewNop())
	// a header with no content behind it cannot be opened
	fh := &multipart.FileHeader{Filename: "cv.pdf", Size: 10}

	if srv.store(c, form, fh, resume.SourceBrowse) {
		t.Fatalf("expected the upload to be rejected")
	}
	if got := form.Error(); got != matcher.GenericMessage {
		t.Fatalf("unexpected message %q", got)
	}
	if form.State().File != nil {
		t.Fatalf("no file must be stored")
	}
}
