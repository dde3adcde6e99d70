package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/session"
)

const (
	sessionCookie = "resume_matcher_session"
	sessionIdle   = time.Hour
)

type entry struct {
	form     *session.Form
	lastSeen time.Time
}

// store keeps one form per browser. Nothing survives a restart.
type store struct {
	mu      sync.Mutex
	forms   map[string]*entry
	maxMB   int
	logger  *zap.Logger
	now     func() time.Time
	idleTTL time.Duration
}

func newStore(maxMB int, logger *zap.Logger) *store {
	return &store{
		forms:   make(map[string]*entry),
		maxMB:   maxMB,
		logger:  logger,
		now:     time.Now,
		idleTTL: sessionIdle,
	}
}

// get returns the form bound to the request cookie, starting a new session
// when the cookie is missing or unknown.
func (s *store) get(c *gin.Context) (string, *session.Form) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if id, err := c.Cookie(sessionCookie); err == nil {
		if e, ok := s.forms[id]; ok {
			e.lastSeen = now
			return id, e.form
		}
	}

	s.prune(now)

	id := uuid.NewString()
	form := session.New(s.maxMB, logger.WithFields(s.logger, zap.String(logger.FieldSession, id)))
	s.forms[id] = &entry{form: form, lastSeen: now}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, 0, "/", "", false, true)

	return id, form
}

func (s *store) prune(now time.Time) {
	for id, e := range s.forms {
		if now.Sub(e.lastSeen) > s.idleTTL && !e.form.State().Loading {
			delete(s.forms, id)
		}
	}
}

func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.forms)
}
