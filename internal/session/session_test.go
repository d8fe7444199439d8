package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/camera"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/media"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
	"github.com/anonto42/snapfeed/internal/repositories"
	"github.com/anonto42/snapfeed/internal/social"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9}

type fixture struct {
	manager *Manager
	auth    *gateway.Authenticator
	graph   *social.Graph
	stacks  *navigation.MemoryStackStore
}

func newFixture(t *testing.T, opts ...func(*Config)) fixture {
	t.Helper()
	mediaStore, err := media.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	auth := gateway.NewAuthenticator(repositories.NewMemoryCredentialRepository(), nil, "test-secret", time.Hour)
	graph := social.NewGraph(gateway.NewMemoryStore(), zap.NewNop())
	stacks := navigation.NewMemoryStackStore()
	cfg := Config{
		Auth:   auth,
		Graph:  graph,
		Media:  mediaStore,
		Stacks: stacks,
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	m := NewManager(cfg)
	t.Cleanup(m.Shutdown)
	return fixture{manager: m, auth: auth, graph: graph, stacks: stacks}
}

func (f fixture) account(t *testing.T, email, username string) gateway.Identity {
	t.Helper()
	ctx := context.Background()
	identity, err := f.auth.SignUp(ctx, email, "secret1")
	require.NoError(t, err)
	require.NoError(t, f.graph.CreateProfile(ctx, models.UserProfile{ID: identity.UID, Username: username, Email: email}))
	return identity
}

func navigate(route string) components.Intent {
	return components.Intent{Action: components.ActionNavigate, Target: route}
}

func TestOpenStartsOnLogin(t *testing.T) {
	f := newFixture(t)
	s, err := f.manager.Open(context.Background(), nil)
	require.NoError(t, err)

	v := s.View()
	assert.Equal(t, navigation.RouteLogin, v.Route)
	assert.Equal(t, []string{navigation.RouteLogin}, v.Stack)
	assert.False(t, v.SignedIn)
	assert.Equal(t, navigation.RouteLogin, v.Root.ID)

	got, err := f.manager.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestPasswordLoginReplacesLoginWithHome(t *testing.T) {
	f := newFixture(t)
	f.account(t, "alice@example.com", "alice")
	s, err := f.manager.Open(context.Background(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Dispatch(ctx, components.Intent{Action: components.ActionInput, Target: "email", Value: "alice@example.com"}))
	require.NoError(t, s.Dispatch(ctx, components.Intent{Action: components.ActionInput, Target: "password", Value: "secret1"}))
	require.NoError(t, s.Dispatch(ctx, components.Intent{Action: components.ActionSubmit, Target: "login"}))

	require.Eventually(t, func() bool { return s.View().Route == navigation.RouteHome }, 2*time.Second, 5*time.Millisecond)
	v := s.View()
	assert.True(t, v.SignedIn)
	assert.Equal(t, []string{navigation.RouteHome}, v.Stack)

	back, err := s.Back()
	require.NoError(t, err)
	assert.False(t, back)
}

func TestNavigationPersistsStackAndResumes(t *testing.T) {
	f := newFixture(t)
	identity := f.account(t, "alice@example.com", "alice")
	ctx := context.Background()

	s, err := f.manager.Open(ctx, &identity)
	require.NoError(t, err)
	assert.Equal(t, navigation.RouteHome, s.View().Route)

	require.NoError(t, s.Dispatch(ctx, navigate(navigation.RouteChatList)))
	require.NoError(t, s.Dispatch(ctx, navigate(navigation.ChatRoom("Rachel"))))
	assert.Equal(t, "chat_room/Rachel", s.View().Route)

	saved, err := f.stacks.Load(ctx, identity.UID)
	require.NoError(t, err)
	assert.Equal(t, []string{navigation.RouteHome, navigation.RouteChatList, "chat_room/Rachel"}, saved)

	require.NoError(t, f.manager.Close(s.ID))
	_, err = f.manager.Get(s.ID)
	assert.ErrorIs(t, err, ErrNoSession)

	resumed, err := f.manager.Open(ctx, &identity)
	require.NoError(t, err)
	assert.Equal(t, saved, resumed.View().Stack)
	assert.Equal(t, "chat_room", resumed.View().Root.ID)
}

func TestBottomBarNavigationIsSingleTop(t *testing.T) {
	f := newFixture(t)
	identity := f.account(t, "alice@example.com", "alice")
	ctx := context.Background()
	s, err := f.manager.Open(ctx, &identity)
	require.NoError(t, err)

	tab := components.Intent{Action: components.ActionNavigate, Target: navigation.RouteLiked,
		Options: &navigation.NavOptions{SingleTop: true}}
	require.NoError(t, s.Dispatch(ctx, tab))
	require.NoError(t, s.Dispatch(ctx, tab))
	assert.Equal(t, []string{navigation.RouteHome, navigation.RouteLiked}, s.View().Stack)

	require.NoError(t, s.Dispatch(ctx, components.Intent{Action: components.ActionBack}))
	assert.Equal(t, navigation.RouteHome, s.View().Route)
}

func TestDispatchRejectsInvalidIntents(t *testing.T) {
	f := newFixture(t)
	s, err := f.manager.Open(context.Background(), nil)
	require.NoError(t, err)

	assert.Error(t, s.Dispatch(context.Background(), components.Intent{Action: "fly"}))
	assert.ErrorIs(t, s.Dispatch(context.Background(), navigate("nowhere")), navigation.ErrUnknownRoute)
	assert.ErrorIs(t, s.Dispatch(context.Background(),
		components.Intent{Action: components.ActionPermission, Target: "microphone", Value: "granted"}), ErrUnknownPermission)
	assert.NoError(t, s.Dispatch(context.Background(), components.Intent{Action: components.ActionUnsupported, Target: "settings"}))
}

func TestPermissionAnswerReachesHome(t *testing.T) {
	f := newFixture(t)
	identity := f.account(t, "alice@example.com", "alice")
	ctx := context.Background()
	s, err := f.manager.Open(ctx, &identity)
	require.NoError(t, err)
	assert.Equal(t, []camera.Permission{camera.PermissionMediaRead}, s.View().Permissions)

	require.NoError(t, s.Dispatch(ctx, components.Intent{Action: components.ActionPermission,
		Target: string(camera.PermissionMediaRead), Value: "granted"}))
	assert.Empty(t, s.View().Permissions)
	require.Eventually(t, func() bool {
		_, ok := components.Find(s.View().Root, "feed:local_dummy_1")
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCaptureThroughSession(t *testing.T) {
	f := newFixture(t)
	identity := f.account(t, "alice@example.com", "alice")
	ctx := context.Background()
	s, err := f.manager.Open(ctx, &identity)
	require.NoError(t, err)

	require.NoError(t, s.Dispatch(ctx, navigate(navigation.RouteCamera)))
	require.NoError(t, s.Dispatch(ctx, components.Intent{Action: components.ActionPermission,
		Target: string(camera.PermissionCamera), Value: "granted"}))
	_, err = s.PushFrame("back", jpegBytes)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		n, ok := components.Find(s.View().Root, "preview")
		return ok && n.Props["ready"] == true
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Dispatch(ctx, components.Intent{Action: components.ActionCapture}))
	require.Eventually(t, func() bool { return s.View().Route == navigation.RouteHome }, 2*time.Second, 5*time.Millisecond)
	// camera is popped and a fresh home pushed over the one below it
	assert.Equal(t, []string{navigation.RouteHome, navigation.RouteHome}, s.View().Stack)
}

func TestPushFrameRejectsUnknownLens(t *testing.T) {
	f := newFixture(t)
	s, err := f.manager.Open(context.Background(), nil)
	require.NoError(t, err)
	_, err = s.PushFrame("side", jpegBytes)
	assert.Error(t, err)
}

func TestSignOutReturnsToLoginAndForgetsStack(t *testing.T) {
	f := newFixture(t)
	identity := f.account(t, "alice@example.com", "alice")
	ctx := context.Background()
	s, err := f.manager.Open(ctx, &identity)
	require.NoError(t, err)
	require.NoError(t, s.Dispatch(ctx, navigate(navigation.RouteProfile)))

	require.NoError(t, s.Dispatch(ctx, components.Intent{Action: components.ActionSignOut}))
	v := s.View()
	assert.False(t, v.SignedIn)
	assert.Equal(t, []string{navigation.RouteLogin}, v.Stack)

	saved, err := f.stacks.Load(ctx, identity.UID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestClosedSessionRefusesNavigation(t *testing.T) {
	f := newFixture(t)
	s, err := f.manager.Open(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, f.manager.Close(s.ID))

	assert.ErrorIs(t, s.Navigate(navigation.RouteRegister, navigation.NavOptions{}), ErrClosed)
	assert.ErrorIs(t, f.manager.Close(s.ID), ErrNoSession)
	assert.Zero(t, f.manager.Len())
}

func TestBackToPopsUntilRoute(t *testing.T) {
	f := newFixture(t)
	identity := f.account(t, "alice@example.com", "alice")
	ctx := context.Background()
	s, err := f.manager.Open(ctx, &identity)
	require.NoError(t, err)
	require.NoError(t, s.Dispatch(ctx, navigate(navigation.RouteLiked)))
	require.NoError(t, s.Dispatch(ctx, navigate(navigation.RouteProfile)))

	require.NoError(t, s.Dispatch(ctx, components.Intent{Action: components.ActionBack, Target: navigation.RouteHome}))
	assert.Equal(t, []string{navigation.RouteHome}, s.View().Stack)

	popped, err := s.BackTo(navigation.RouteCamera)
	require.NoError(t, err)
	assert.False(t, popped)
}

func TestWatchSignalsNavigationAndAsyncLoads(t *testing.T) {
	f := newFixture(t)
	identity := f.account(t, "alice@example.com", "alice")
	ctx := context.Background()
	s, err := f.manager.Open(ctx, &identity)
	require.NoError(t, err)

	changes, stop := s.Watch()
	defer stop()
	drain := func() {
		for {
			select {
			case <-changes:
			default:
				return
			}
		}
	}
	waitChange := func() {
		t.Helper()
		select {
		case <-changes:
		case <-time.After(2 * time.Second):
			t.Fatal("no change signalled")
		}
	}

	drain()
	require.NoError(t, s.Dispatch(ctx, navigate(navigation.RouteProfile)))
	waitChange()

	// the profile fetch finishes after Dispatch returned and signals again
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := components.Find(s.View().Root, "followers_count"); ok {
			break
		}
		select {
		case <-changes:
		case <-deadline:
			t.Fatal("profile load never signalled")
		}
	}

	stop()
	drain()
	require.NoError(t, s.Dispatch(ctx, navigate(navigation.RouteLiked)))
	select {
	case <-changes:
		t.Fatal("stopped watch still signalled")
	default:
	}
}

func TestSweepClosesIdleSessions(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}
	f := newFixture(t, func(c *Config) {
		c.Now = clock
		c.IdleTTL = 10 * time.Minute
	})
	ctx := context.Background()

	idle, err := f.manager.Open(ctx, nil)
	require.NoError(t, err)
	active, err := f.manager.Open(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, f.manager.Len())

	advance(6 * time.Minute)
	active.Touch()
	assert.Zero(t, f.manager.Sweep())

	advance(6 * time.Minute)
	assert.Equal(t, 1, f.manager.Sweep())
	assert.Equal(t, 1, f.manager.Len())

	_, err = f.manager.Get(idle.ID)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, idle.Navigate(navigation.RouteRegister, navigation.NavOptions{}), ErrClosed)
	_, err = f.manager.Get(active.ID)
	assert.NoError(t, err)
}

func TestReapStopsWithContext(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.IdleTTL = time.Nanosecond })
	_, err := f.manager.Open(context.Background(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.manager.Reap(ctx, time.Millisecond)
	}()
	require.Eventually(t, func() bool { return f.manager.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Reap did not return")
	}
}
