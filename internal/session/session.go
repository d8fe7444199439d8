// Package session hosts one running client per shell connection: its UI
// loop, back stack, permissions, camera device and the mounted screen.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/camera"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/navigation"
	"github.com/anonto42/snapfeed/internal/screens"
)

var (
	ErrNoSession         = errors.New("session: not found")
	ErrClosed            = errors.New("session: closed")
	ErrUnknownPermission = errors.New("session: unknown permission")
)

const persistTimeout = 2 * time.Second

// View is what a shell draws for the current screen
type View struct {
	SessionID   string              `json:"session_id"`
	Route       string              `json:"route"`
	Stack       []string            `json:"stack"`
	SignedIn    bool                `json:"signed_in"`
	Permissions []camera.Permission `json:"pending_permissions"`
	Root        components.Node     `json:"root"`
}

// Session is one running client
type Session struct {
	ID     string
	cfg    Config
	logger *zap.Logger

	loop   *binder.Loop
	worker *binder.Loop
	nav    *navigation.Navigator
	perms  *camera.Permissions
	device *camera.FrameDevice
	chats  *screens.ChatStore
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	current   screens.Screen
	unobserve func()
	closed    bool

	lastSeen atomic.Int64

	watchMu   sync.Mutex
	watchers  map[int]chan struct{}
	nextWatch int

	idMu     sync.RWMutex
	identity gateway.Identity
	signedIn bool
}

func newSession(id string, cfg Config) (*Session, error) {
	nav, err := navigation.NewNavigator(cfg.Table, navigation.StartRoute)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:     id,
		cfg:    cfg,
		logger: cfg.Logger.With(zap.String("session", id)),
		loop:   binder.NewLoop(64),
		worker: binder.NewLoop(8),
		nav:    nav,
		perms:  camera.NewPermissions(),
		device: camera.NewFrameDevice(),
		chats:  screens.NewChatStore(cfg.Now),
		ctx:    ctx,
		cancel: cancel,

		watchers: make(map[int]chan struct{}),
	}, nil
}

// Touch marks the session as used now
func (s *Session) Touch() {
	s.lastSeen.Store(s.cfg.Now().UnixNano())
}

// idleSince reports how long the session has gone unused at now
func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Watch returns a channel that receives a value whenever the view may have
// changed. Signals are coalesced, so a slow reader sees the latest view on
// its next render. The returned function stops the watch.
func (s *Session) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.watchMu.Lock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = ch
	s.watchMu.Unlock()
	return ch, func() {
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
	}
}

// Done is closed when the session is closed
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// changed wakes every watcher without blocking; binder observers call it on
// the UI loop
func (s *Session) changed() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Session) deps() screens.Deps {
	return screens.Deps{
		Host:        s,
		Auth:        s.cfg.Auth,
		Graph:       s.cfg.Graph,
		Media:       s.cfg.Media,
		Loop:        s.loop,
		Worker:      s.worker,
		Permissions: s.perms,
		Device:      s.device,
		Chats:       s.chats,
		Validate:    s.cfg.Validate,
		Logger:      s.logger,
		Now:         s.cfg.Now,
	}
}

// Identity returns the signed-in user
func (s *Session) Identity() (gateway.Identity, bool) {
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	return s.identity, s.signedIn
}

// SignIn attaches identity to the session
func (s *Session) SignIn(identity gateway.Identity) {
	s.idMu.Lock()
	s.identity = identity
	s.signedIn = true
	s.idMu.Unlock()
	s.logger.Info("signed in", zap.String("uid", identity.UID), zap.String("provider", identity.Provider))
}

// SignOut revokes the identity, forgets the saved stack and returns to login
func (s *Session) SignOut(ctx context.Context) error {
	identity, ok := s.Identity()
	if ok {
		if err := s.cfg.Auth.SignOut(ctx, identity); err != nil {
			s.logger.Warn("revoke on sign out failed", zap.Error(err))
		}
		if s.cfg.Stacks != nil {
			if err := s.cfg.Stacks.Delete(ctx, identity.UID); err != nil {
				s.logger.Warn("clear saved stack", zap.Error(err))
			}
		}
	}
	s.idMu.Lock()
	s.identity = gateway.Identity{}
	s.signedIn = false
	s.idMu.Unlock()
	return s.Navigate(navigation.RouteLogin, navigation.NavOptions{PopUpTo: navigation.RouteHome, Inclusive: true})
}

// Navigate moves to route and mounts its screen
func (s *Session) Navigate(route string, opts navigation.NavOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	before := len(s.nav.Routes())
	entry, err := s.nav.Navigate(route, opts)
	if err != nil {
		return err
	}
	reused := opts.SingleTop && s.current != nil && s.current.Route() == entry.Route && len(s.nav.Routes()) == before
	if !reused {
		if err := s.showLocked(); err != nil {
			return err
		}
	}
	s.persist()
	s.changed()
	return nil
}

// Back pops one screen; it reports false when only one screen is left
func (s *Session) Back() (bool, error) {
	return s.pop(func() bool {
		_, ok := s.nav.PopBackStack()
		return ok
	})
}

// BackTo pops screens until route is on top. It reports false, leaving the
// stack alone, when route is not on the stack.
func (s *Session) BackTo(route string) (bool, error) {
	return s.pop(func() bool { return s.nav.PopTo(route, false) })
}

func (s *Session) pop(popper func() bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	if !popper() {
		return false, nil
	}
	if err := s.showLocked(); err != nil {
		return true, err
	}
	s.persist()
	s.changed()
	return true, nil
}

// restore replaces the stack with a saved one and mounts its top
func (s *Session) restore(routes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nav.Restore(routes); err != nil {
		return err
	}
	return s.showLocked()
}

// showLocked unmounts the current screen and mounts the navigator's top
func (s *Session) showLocked() error {
	entry := s.nav.Current()
	s.unmountLocked()
	screen, err := screens.New(entry, s.deps())
	if err != nil {
		return err
	}
	s.unobserve = screen.Observe(s.changed)
	screen.Mount(s.ctx)
	s.current = screen
	s.logger.Debug("mounted screen", zap.String("route", entry.Route))
	return nil
}

func (s *Session) unmountLocked() {
	if s.unobserve != nil {
		s.unobserve()
		s.unobserve = nil
	}
	if s.current != nil {
		s.current.Unmount()
		s.current = nil
	}
}

func (s *Session) persist() {
	identity, ok := s.Identity()
	if !ok || s.cfg.Stacks == nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()
	if err := s.cfg.Stacks.Save(ctx, identity.UID, s.nav.Routes()); err != nil {
		s.logger.Warn("save back stack", zap.Error(err))
	}
}

// View renders the current screen
func (s *Session) View() View {
	s.mu.Lock()
	current := s.current
	route := s.nav.Current().Route
	stack := s.nav.Routes()
	s.mu.Unlock()

	_, signedIn := s.Identity()
	v := View{
		SessionID:   s.ID,
		Route:       route,
		Stack:       stack,
		SignedIn:    signedIn,
		Permissions: s.perms.Pending(),
	}
	if current != nil {
		v.Root = current.View()
	}
	return v
}

// Dispatch applies an intent. Navigation, back, permission answers and sign
// out are handled here; everything else goes to the mounted screen.
func (s *Session) Dispatch(ctx context.Context, intent components.Intent) error {
	if s.cfg.Validate != nil {
		if err := s.cfg.Validate.Struct(intent); err != nil {
			return err
		}
	}
	switch intent.Action {
	case components.ActionNavigate:
		var opts navigation.NavOptions
		if intent.Options != nil {
			opts = *intent.Options
		}
		return s.Navigate(intent.Target, opts)
	case components.ActionBack:
		var err error
		if intent.Target != "" {
			_, err = s.BackTo(intent.Target)
		} else {
			_, err = s.Back()
		}
		return err
	case components.ActionPermission:
		perm := camera.Permission(intent.Target)
		if perm != camera.PermissionCamera && perm != camera.PermissionMediaRead {
			return fmt.Errorf("%w: %q", ErrUnknownPermission, intent.Target)
		}
		s.perms.Resolve(perm, intent.Value == "granted")
		s.changed()
		return nil
	case components.ActionSignOut:
		return s.SignOut(ctx)
	case components.ActionUnsupported:
		s.logger.Info("action not implemented", zap.String("target", intent.Target))
		return nil
	}

	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil {
		return screens.ErrUnhandledIntent
	}
	if err := current.Handle(ctx, intent); err != nil {
		return err
	}
	s.changed()
	return nil
}

// PushFrame stores a preview frame pushed by the shell
func (s *Session) PushFrame(lens string, data []byte) (camera.Frame, error) {
	l, err := camera.ParseLens(lens)
	if err != nil {
		return camera.Frame{}, err
	}
	return s.device.PushFrame(l, data)
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.unmountLocked()
	s.mu.Unlock()
	s.cancel()
	s.worker.Close()
	s.loop.Close()
}
