package web

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/matcher"
	"github.com/spigell/resume-matcher/internal/report"
	"github.com/spigell/resume-matcher/internal/resume"
	"github.com/spigell/resume-matcher/internal/session"
)

const (
	fieldResume         = "resume_file"
	fieldJobDescription = "job_description"
	fieldDetailed       = "detailed"
	fieldSource         = "source"
)

// Setup all of the handlers to their respective endpoints
func (s *Server) setupHandlers(r *gin.Engine) {
	r.GET("/", s.homePage)
	r.POST("/upload", s.upload)
	r.POST("/analyze", s.analyze)
	r.POST("/remove-file", s.removeFile)
	r.POST("/sample", s.sample)
	r.POST("/reset", s.reset)
	r.GET("/result.json", s.downloadJSON)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

type pageData struct {
	State      session.State
	CanAnalyze bool
	Meta       report.Meta

	APILabel string
	APITitle string
	DocsURL  string

	NoOverlapsText string
	NoGapsText     string
}

func (s *Server) homePage(c *gin.Context) {
	_, form := s.sessions.get(c)
	state := form.State()

	apiLabel, apiTitle := "Render API", "API: "+s.client.APIURL
	if matcher.IsLocal(s.cfg.APIBase) {
		apiLabel, apiTitle = "Local API", "API: "+matcher.DefaultAPIURL+" (dev proxy)"
	}

	data := pageData{
		State:      state,
		CanAnalyze: state.CanAnalyze(),
		Meta: report.Meta{
			Latency:    state.Latency,
			HasLatency: state.HasLatency,
			AnalyzedAt: state.AnalyzedAt,
		},
		APILabel:       apiLabel,
		APITitle:       apiTitle,
		DocsURL:        s.client.DocsURL(),
		NoOverlapsText: report.NoOverlapsText,
		NoGapsText:     report.NoGapsText,
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := s.tmpl.ExecuteTemplate(c.Writer, "page.html", data); err != nil {
		requestLog(c).Error("template render failed", zap.Error(err))
	}
}

// upload handles both the browse input and drag and drop.
func (s *Server) upload(c *gin.Context) {
	_, form := s.sessions.get(c)
	keepInputs(c, form)
	s.intake(c, form)
	back(c)
}

// keepInputs stores the description and the detailed flag posted along with
// another action, so unsaved edits survive the redirect. Posts without the
// description field leave both untouched.
func keepInputs(c *gin.Context, form *session.Form) {
	jd, ok := c.GetPostForm(fieldJobDescription)
	if !ok {
		return
	}

	form.SetJobDescription(jd)
	form.SetDetailed(isChecked(c.PostForm(fieldDetailed)))
}

func isChecked(v string) bool {
	return v == "true" || v == "on"
}

// intake stores the submitted resume part, if any. It reports false when a
// file was submitted and rejected.
func (s *Server) intake(c *gin.Context, form *session.Form) bool {
	fh, err := c.FormFile(fieldResume)
	if err != nil || fh.Filename == "" {
		return true
	}

	src := resume.SourceBrowse
	if c.PostForm(fieldSource) == "drop" {
		src = resume.SourceDrop
	}

	return s.store(c, form, fh, src)
}

func (s *Server) store(c *gin.Context, form *session.Form, fh *multipart.FileHeader, src resume.Source) bool {
	file, err := resume.FromHeader(fh, resume.MaxBytes(s.cfg.MaxFileMB))
	if err != nil {
		requestLog(c).Warn("reading uploaded resume", zap.Error(err))
		form.SetError(matcher.GenericMessage)
		return false
	}

	return form.SetFile(file, src) == nil
}

func (s *Server) analyze(c *gin.Context) {
	_, form := s.sessions.get(c)

	if !s.intake(c, form) {
		back(c)
		return
	}

	form.SetJobDescription(c.PostForm(fieldJobDescription))
	form.SetDetailed(isChecked(c.PostForm(fieldDetailed)))

	err := form.Submit(c.Request.Context(), s.scorer)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrIncomplete):
		requestLog(c).Debug("analysis not started", zap.Error(err))
	default:
		requestLog(c).Warn("analysis failed", zap.Error(err))
	}

	back(c)
}

func (s *Server) removeFile(c *gin.Context) {
	_, form := s.sessions.get(c)
	keepInputs(c, form)
	form.RemoveFile()
	back(c)
}

func (s *Server) sample(c *gin.Context) {
	_, form := s.sessions.get(c)
	keepInputs(c, form)
	form.LoadSampleJD()
	back(c)
}

func (s *Server) reset(c *gin.Context) {
	_, form := s.sessions.get(c)
	if err := form.Reset(); err != nil {
		requestLog(c).Debug("reset refused", zap.Error(err))
	}
	back(c)
}

func (s *Server) downloadJSON(c *gin.Context) {
	_, form := s.sessions.get(c)
	result := form.Result()
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "no result yet"})
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", `attachment; filename="`+report.DefaultJSONName+`"`)
	c.Status(http.StatusOK)
	if err := report.WriteJSON(c.Writer, result); err != nil {
		requestLog(c).Error("writing result json", zap.Error(err))
	}
}

// back sends the browser to the page after a form post.
func back(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}
