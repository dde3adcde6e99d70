package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matcher"
	"github.com/spigell/resume-matcher/internal/report"
	"github.com/spigell/resume-matcher/internal/resume"
	"github.com/spigell/resume-matcher/internal/session"
)

//go:embed templates
var templatesFS embed.FS

const loggerKey = "logger"

type Config struct {
	Listen    string
	MaxFileMB int
	// APIBase is the configured base URL as given, empty when the local default is used.
	APIBase string
}

// Server is the web form in front of the scoring API.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	client   *matcher.Client
	scorer   session.Scorer
	sessions *store
	tmpl     *template.Template
}

// New prepares the server. scorer is usually the client itself.
func New(cfg Config, client *matcher.Client, scorer session.Scorer, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxFileMB <= 0 {
		cfg.MaxFileMB = resume.DefaultMaxSizeMB
	}
	if cfg.Listen == "" {
		cfg.Listen = ":3000"
	}
	if scorer == nil {
		scorer = client
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Server{
		cfg:      cfg,
		logger:   log,
		client:   client,
		scorer:   scorer,
		sessions: newStore(cfg.MaxFileMB, log),
		tmpl:     tmpl,
	}, nil
}

var templateFuncs = template.FuncMap{
	"percent":   report.Percent,
	"progress":  report.ProgressWidth,
	"fit":       report.Fit,
	"localTime": localTime,
}

func localTime(t time.Time) string {
	return t.Local().Format(time.TimeOnly)
}

// Handler builds the gin engine with all routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	// the part is held in memory up to the ceiling plus room for the text fields
	r.MaxMultipartMemory = resume.MaxBytes(s.cfg.MaxFileMB) + 1<<20

	s.setupHandlers(r)

	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("server starting",
		zap.String("listen", s.cfg.Listen),
		zap.String(logger.FieldAPI, s.client.APIURL),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.logger.Info("server stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		requestLogger := logger.WithRequest(s.logger, uuid.NewString(), "")
		c.Set(loggerKey, requestLogger)

		requestLogger.Debug("incoming request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		c.Next()

		requestLogger.Info("finished request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(started)),
		)
	}
}

func requestLog(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(loggerKey); ok {
		if zl, ok := l.(*zap.Logger); ok {
			return zl
		}
	}
	return zap.NewNop()
}
