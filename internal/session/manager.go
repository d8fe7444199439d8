package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/media"
	"github.com/anonto42/snapfeed/internal/navigation"
	"github.com/anonto42/snapfeed/internal/social"
)

// Config holds what every session shares
type Config struct {
	Auth     gateway.AuthService
	Graph    *social.Graph
	Media    media.Store
	Stacks   navigation.StackStore
	Table    *navigation.Table
	Validate *validator.Validate
	Logger   *zap.Logger
	Now      func() time.Time

	// IdleTTL closes sessions unused for longer; zero keeps them forever
	IdleTTL time.Duration
}

// Manager keeps the live sessions
type Manager struct {
	cfg      Config
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty Manager
func NewManager(cfg Config) *Manager {
	if cfg.Table == nil {
		cfg.Table = navigation.DefaultTable()
	}
	if cfg.Validate == nil {
		cfg.Validate = validator.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{cfg: cfg, sessions: make(map[string]*Session)}
}

// Open starts a session on the login screen. With an identity it starts
// signed in, on the saved back stack or else on home.
func (m *Manager) Open(ctx context.Context, identity *gateway.Identity) (*Session, error) {
	s, err := newSession(uuid.NewString(), m.cfg)
	if err != nil {
		return nil, err
	}
	s.Touch()

	if identity == nil {
		err = s.restore([]string{navigation.StartRoute})
	} else {
		s.SignIn(*identity)
		err = m.resume(ctx, s, identity.UID)
	}
	if err != nil {
		s.close()
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.cfg.Logger.Info("session opened", zap.String("session", s.ID), zap.Bool("signed_in", identity != nil))
	return s, nil
}

func (m *Manager) resume(ctx context.Context, s *Session, uid string) error {
	if m.cfg.Stacks != nil {
		routes, err := m.cfg.Stacks.Load(ctx, uid)
		if err != nil {
			m.cfg.Logger.Warn("load saved stack", zap.String("uid", uid), zap.Error(err))
		}
		if len(routes) > 0 {
			if err := s.restore(routes); err == nil {
				return nil
			}
			m.cfg.Logger.Warn("saved stack discarded", zap.String("uid", uid), zap.Strings("routes", routes))
		}
	}
	return s.Navigate(navigation.RouteHome, navigation.NavOptions{PopUpTo: navigation.RouteLogin, Inclusive: true})
}

// Get returns a live session
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Close ends a session
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	s.close()
	return nil
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Routes returns the route patterns a shell may navigate to
func (m *Manager) Routes() []string {
	return m.cfg.Table.Patterns()
}

// Sweep closes every session idle for longer than IdleTTL and returns how
// many it closed. A signed-in user reopening later resumes the saved stack.
func (m *Manager) Sweep() int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	now := m.cfg.Now()
	var idle []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(now) > m.cfg.IdleTTL {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.close()
	}
	if len(idle) > 0 {
		m.cfg.Logger.Info("idle sessions closed", zap.Int("closed", len(idle)), zap.Int("live", m.Len()))
	}
	return len(idle)
}

// Reap runs Sweep every interval until ctx ends
func (m *Manager) Reap(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown closes every session
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}
