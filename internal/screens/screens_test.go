package screens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/binder"
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

type navCall struct {
	route string
	opts  navigation.NavOptions
}

type fakeHost struct {
	mu       sync.Mutex
	identity gateway.Identity
	signedIn bool
	navs     []navCall
}

func (h *fakeHost) Navigate(route string, opts navigation.NavOptions) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.navs = append(h.navs, navCall{route: route, opts: opts})
	return nil
}

func (h *fakeHost) Identity() (gateway.Identity, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.identity, h.signedIn
}

func (h *fakeHost) SignIn(identity gateway.Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.identity = identity
	h.signedIn = true
}

func (h *fakeHost) navigations() []navCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]navCall(nil), h.navs...)
}

type env struct {
	deps   Deps
	host   *fakeHost
	store  *gateway.MemoryStore
	auth   *gateway.Authenticator
	media  *media.LocalStore
	device *camera.FrameDevice
}

func newEnv(t *testing.T) env {
	t.Helper()
	loop := binder.NewLoop(64)
	worker := binder.NewLoop(8)
	t.Cleanup(func() {
		worker.Close()
		loop.Close()
	})
	store := gateway.NewMemoryStore()
	auth := gateway.NewAuthenticator(repositories.NewMemoryCredentialRepository(), nil, "test-secret", time.Hour)
	mediaStore, err := media.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	host := &fakeHost{}
	device := camera.NewFrameDevice()
	now := func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return env{
		deps: Deps{
			Host:        host,
			Auth:        auth,
			Graph:       social.NewGraph(store, zap.NewNop()),
			Media:       mediaStore,
			Loop:        loop,
			Worker:      worker,
			Permissions: camera.NewPermissions(),
			Device:      device,
			Chats:       NewChatStore(now),
			Validate:    validator.New(),
			Logger:      zap.NewNop(),
			Now:         now,
		},
		host:   host,
		store:  store,
		auth:   auth,
		media:  mediaStore,
		device: device,
	}
}

func (e env) signIn(t *testing.T, id, username string) {
	t.Helper()
	require.NoError(t, e.deps.Graph.CreateProfile(context.Background(), models.UserProfile{ID: id, Username: username, Email: username + "@example.com"}))
	e.host.SignIn(gateway.Identity{UID: id, Email: username + "@example.com", Provider: models.ProviderPassword})
}

func mount(t *testing.T, s Screen) {
	t.Helper()
	s.Mount(context.Background())
	t.Cleanup(s.Unmount)
}

func textOf(t *testing.T, root components.Node, id string) string {
	t.Helper()
	n, ok := components.Find(root, id)
	require.True(t, ok, "node %q not rendered", id)
	text, _ := n.Props["text"].(string)
	return text
}

func input(target, value string) components.Intent {
	return components.Intent{Action: components.ActionInput, Target: target, Value: value}
}

func submit(target string) components.Intent {
	return components.Intent{Action: components.ActionSubmit, Target: target}
}

func TestNewUnknownRoute(t *testing.T) {
	e := newEnv(t)
	_, err := New(navigation.Entry{Pattern: "nowhere", Route: "nowhere"}, e.deps)
	assert.ErrorIs(t, err, navigation.ErrUnknownRoute)
}

func TestLoginRejectsEmptyFields(t *testing.T) {
	e := newEnv(t)
	l := NewLogin(e.deps)
	mount(t, l)

	require.NoError(t, l.Handle(context.Background(), input(FieldEmail, "alice@example.com")))
	require.NoError(t, l.Handle(context.Background(), submit(SubmitLogin)))

	assert.Equal(t, "Email/Username and Password cannot be empty.", textOf(t, l.View(), "error"))
	assert.Empty(t, e.host.navigations())
}

func TestLoginSuccessMovesHome(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.SignUp(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)

	l := NewLogin(e.deps)
	mount(t, l)
	ctx := context.Background()
	require.NoError(t, l.Handle(ctx, input(FieldEmail, "alice@example.com")))
	require.NoError(t, l.Handle(ctx, input(FieldPassword, "secret1")))
	require.NoError(t, l.Handle(ctx, submit(SubmitLogin)))

	require.Eventually(t, func() bool { return len(e.host.navigations()) == 1 }, 2*time.Second, 5*time.Millisecond)
	nav := e.host.navigations()[0]
	assert.Equal(t, navigation.RouteHome, nav.route)
	assert.Equal(t, navigation.NavOptions{PopUpTo: navigation.RouteLogin, Inclusive: true}, nav.opts)

	identity, ok := e.host.Identity()
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.NotEmpty(t, identity.Token)
}

func TestLoginWrongPasswordShowsServiceMessage(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.SignUp(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)

	l := NewLogin(e.deps)
	mount(t, l)
	ctx := context.Background()
	require.NoError(t, l.Handle(ctx, input(FieldEmail, "alice@example.com")))
	require.NoError(t, l.Handle(ctx, input(FieldPassword, "wrong-password")))
	require.NoError(t, l.Handle(ctx, submit(SubmitLogin)))

	require.Eventually(t, func() bool { return l.form.Snapshot().Err != "" }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "The password is invalid or the user does not have a password.", l.form.Snapshot().Err)
	assert.False(t, l.form.Snapshot().Loading)
	assert.Empty(t, e.host.navigations())
}

func TestGoogleSignInWithoutToken(t *testing.T) {
	e := newEnv(t)
	l := NewLogin(e.deps)
	mount(t, l)

	require.NoError(t, l.Handle(context.Background(), submit(SubmitGoogle)))
	assert.Equal(t, "Google ID Token is null.", l.form.Snapshot().Err)
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name                      string
		email, username, password string
		want                      string
	}{
		{"missing field", "alice@example.com", "", "secret1", "All fields must be filled."},
		{"bad email", "alice-at-example", "alice", "secret1", "Please enter a valid email address."},
		{"short password", "alice@example.com", "alice", "12345", "Password must be at least 6 characters long."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			r := NewRegister(e.deps)
			mount(t, r)
			ctx := context.Background()
			require.NoError(t, r.Handle(ctx, input(FieldEmail, tc.email)))
			require.NoError(t, r.Handle(ctx, input(FieldUsername, tc.username)))
			require.NoError(t, r.Handle(ctx, input(FieldPassword, tc.password)))
			require.NoError(t, r.Handle(ctx, submit(SubmitRegister)))
			assert.Equal(t, tc.want, textOf(t, r.View(), "status"))
		})
	}
}

func TestRegisterCreatesAccountAndProfile(t *testing.T) {
	e := newEnv(t)
	r := NewRegister(e.deps)
	mount(t, r)
	ctx := context.Background()
	require.NoError(t, r.Handle(ctx, input(FieldEmail, "alice@example.com")))
	require.NoError(t, r.Handle(ctx, input(FieldUsername, "alice")))
	require.NoError(t, r.Handle(ctx, input(FieldPassword, "secret1")))
	require.NoError(t, r.Handle(ctx, submit(SubmitRegister)))

	require.Eventually(t, func() bool { return r.form.Snapshot().Message != "" }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "Registration successful for alice! You can now login.", r.form.Snapshot().Message)

	identity, err := e.auth.SignInWithPassword(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	profile, err := e.deps.Graph.Profile(ctx, identity.UID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Empty(t, profile.Following)
	assert.Empty(t, e.host.navigations())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.SignUp(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)

	r := NewRegister(e.deps)
	mount(t, r)
	ctx := context.Background()
	require.NoError(t, r.Handle(ctx, input(FieldEmail, "alice@example.com")))
	require.NoError(t, r.Handle(ctx, input(FieldUsername, "alice")))
	require.NoError(t, r.Handle(ctx, input(FieldPassword, "secret1")))
	require.NoError(t, r.Handle(ctx, submit(SubmitRegister)))

	require.Eventually(t, func() bool { return r.form.Snapshot().Err != "" }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "The email address is already in use by another account.", r.form.Snapshot().Err)
}

func TestHomeShowsDummiesWhenFolderIsEmpty(t *testing.T) {
	e := newEnv(t)
	e.deps.Permissions.Resolve(camera.PermissionMediaRead, true)
	h := NewHome(e.deps)
	mount(t, h)

	require.Eventually(t, func() bool { return h.feed.Snapshot().Loaded }, 2*time.Second, 5*time.Millisecond)
	view := h.View()
	assert.Equal(t, "No photos found in 'MyCamera' folder. Showing dummy resources.", textOf(t, view, "feed_status"))
	assert.Equal(t, "May 06,2024", textOf(t, view, "date:local_dummy_1"))

	like, ok := components.Find(view, "like:local_dummy_1")
	require.True(t, ok)
	assert.Equal(t, "10", like.Props["label"])

	require.NoError(t, h.Handle(context.Background(), *like.Intent))
	like, _ = components.Find(h.View(), "like:local_dummy_1")
	assert.Equal(t, "11", like.Props["label"])
	assert.Equal(t, true, like.Props["liked"])
}

func TestHomeLikeToggleTwiceRestoresCount(t *testing.T) {
	e := newEnv(t)
	e.deps.Permissions.Resolve(camera.PermissionMediaRead, true)
	h := NewHome(e.deps)
	mount(t, h)
	require.Eventually(t, func() bool { return h.feed.Snapshot().Loaded }, 2*time.Second, 5*time.Millisecond)

	like, ok := components.Find(h.View(), "like:local_dummy_2")
	require.True(t, ok)
	require.Equal(t, "5", like.Props["label"])

	ctx := context.Background()
	require.NoError(t, h.Handle(ctx, *like.Intent))
	require.NoError(t, h.Handle(ctx, *like.Intent))

	like, _ = components.Find(h.View(), "like:local_dummy_2")
	assert.Equal(t, "5", like.Props["label"])
	assert.Equal(t, false, like.Props["liked"])
	assert.Equal(t, "gray", like.Props["tint"])

	other, _ := components.Find(h.View(), "like:local_dummy_1")
	assert.Equal(t, "10", other.Props["label"])
}

func TestHomeListsCapturedPhotos(t *testing.T) {
	e := newEnv(t)
	item, err := e.media.Save(context.Background(), media.CameraFolder, "20240506_070809.jpg", "", jpegBytes)
	require.NoError(t, err)
	e.deps.Permissions.Resolve(camera.PermissionMediaRead, true)

	h := NewHome(e.deps)
	mount(t, h)
	require.Eventually(t, func() bool { return h.feed.Snapshot().Loaded }, 2*time.Second, 5*time.Millisecond)

	feed := h.feed.Snapshot().Data
	require.Len(t, feed, 1)
	assert.Equal(t, "You", feed[0].Username)
	assert.Equal(t, item.URI, feed[0].ImageRef)
	assert.Equal(t, models.ImageLocal, feed[0].ImageKind)
	assert.Equal(t, "Captured with MyCamera: 20240506_070809.jpg", feed[0].Description)
	assert.Empty(t, h.feed.Snapshot().Message)
}

func TestHomeStoragePermissionDenied(t *testing.T) {
	e := newEnv(t)
	h := NewHome(e.deps)
	mount(t, h)

	assert.Equal(t, []camera.Permission{camera.PermissionMediaRead}, e.deps.Permissions.Pending())
	assert.Equal(t, "Loading local photos...", textOf(t, h.View(), "feed_status"))

	e.deps.Permissions.Resolve(camera.PermissionMediaRead, false)
	assert.Equal(t, "Error: Storage permission denied. Cannot load local images.", textOf(t, h.View(), "feed_status"))
}

func TestHomeLoadsOnceStorageIsGranted(t *testing.T) {
	e := newEnv(t)
	h := NewHome(e.deps)
	mount(t, h)

	e.deps.Permissions.Resolve(camera.PermissionMediaRead, true)
	require.Eventually(t, func() bool { return h.feed.Snapshot().Loaded }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, h.feed.Snapshot().Data, 2)
}

func TestLikedShowsSamplePosts(t *testing.T) {
	e := newEnv(t)
	l := NewLiked(e.deps)
	mount(t, l)
	require.Eventually(t, func() bool {
		_, ok := components.Find(l.View(), "feed:liked2")
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSearchAndFollow(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "a", "alice")
	require.NoError(t, e.deps.Graph.CreateProfile(context.Background(), models.UserProfile{ID: "b", Username: "bob"}))

	s := NewSearchUsers(e.deps)
	mount(t, s)
	require.Eventually(t, func() bool { return !s.state.Snapshot().Loading }, 2*time.Second, 5*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, s.Handle(ctx, input(FieldQuery, "bo")))
	require.Eventually(t, func() bool { return len(s.state.Snapshot().Data.Results) == 1 }, 2*time.Second, 5*time.Millisecond)

	add, ok := components.Find(s.View(), "add:b")
	require.True(t, ok)
	assert.Equal(t, "Add", add.Props["label"])

	require.NoError(t, s.Handle(ctx, *add.Intent))
	require.Eventually(t, func() bool { return s.state.Snapshot().Data.Following["b"] }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "You are now following bob!", s.state.Snapshot().Message)

	add, _ = components.Find(s.View(), "add:b")
	assert.Equal(t, "Following", add.Props["label"])

	require.NoError(t, s.Handle(ctx, *add.Intent))
	assert.Equal(t, "You are already following bob.", s.state.Snapshot().Message)

	bob, err := e.deps.Graph.Profile(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, bob.Followers)
}

func TestSearchFollowFailureKeepsFollowingSetUnchanged(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "a", "alice")
	require.NoError(t, e.deps.Graph.CreateProfile(context.Background(), models.UserProfile{ID: "b", Username: "bob"}))
	e.store.FailOn(gateway.OpArrayUnion, models.UsersCollection, "b", errors.New("boom"))

	s := NewSearchUsers(e.deps)
	mount(t, s)
	require.Eventually(t, func() bool { return !s.state.Snapshot().Loading }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Handle(context.Background(), components.Intent{Action: components.ActionAddFriend, Target: "b", Value: "bob"}))
	require.Eventually(t, func() bool { return s.state.Snapshot().Err != "" }, 2*time.Second, 5*time.Millisecond)

	st := s.state.Snapshot()
	assert.False(t, st.Data.Following["b"])
	assert.Equal(t, "Failed to add bob: boom", st.Err)
	assert.Empty(t, st.Message)
}

func TestSearchNoMatches(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "a", "alice")
	s := NewSearchUsers(e.deps)
	mount(t, s)

	require.NoError(t, s.Handle(context.Background(), input(FieldQuery, "zed")))
	require.Eventually(t, func() bool { return s.state.Snapshot().Message == "No users found for 'zed'." }, 2*time.Second, 5*time.Millisecond)
}

func TestSearchSignedOut(t *testing.T) {
	e := newEnv(t)
	s := NewSearchUsers(e.deps)
	mount(t, s)

	assert.Equal(t, "User not logged in.", s.state.Snapshot().Message)
	require.NoError(t, s.Handle(context.Background(), components.Intent{Action: components.ActionAddFriend, Target: "b", Value: "bob"}))
	assert.Equal(t, "Please log in to add friends.", s.state.Snapshot().Message)
}

func TestProfileShowsCounts(t *testing.T) {
	e := newEnv(t)
	e.signIn(t, "a", "alice")
	p := NewProfile(e.deps)
	mount(t, p)

	require.Eventually(t, func() bool { return p.profile.Snapshot().Loaded }, 2*time.Second, 5*time.Millisecond)
	view := p.View()
	assert.Equal(t, "alice", textOf(t, view, "profile_username"))
	assert.Equal(t, "3", textOf(t, view, "posts_count"))
	assert.Equal(t, "0", textOf(t, view, "followers_count"))
}

func TestProfileErrors(t *testing.T) {
	t.Run("missing document", func(t *testing.T) {
		e := newEnv(t)
		e.host.SignIn(gateway.Identity{UID: "ghost"})
		p := NewProfile(e.deps)
		mount(t, p)
		require.Eventually(t, func() bool { return p.profile.Snapshot().Err != "" }, 2*time.Second, 5*time.Millisecond)
		assert.Equal(t, "User profile not found in Firestore.", p.profile.Snapshot().Err)
	})
	t.Run("signed out", func(t *testing.T) {
		e := newEnv(t)
		p := NewProfile(e.deps)
		mount(t, p)
		require.Eventually(t, func() bool { return p.profile.Snapshot().Err != "" }, 2*time.Second, 5*time.Millisecond)
		assert.Equal(t, "No user logged in.", p.profile.Snapshot().Err)
	})
}

func TestChatRoomTitleIsPartnerName(t *testing.T) {
	e := newEnv(t)
	entry, err := navigation.DefaultTable().Match(navigation.ChatRoom("Rachel"))
	require.NoError(t, err)
	screen, err := New(entry, e.deps)
	require.NoError(t, err)
	mount(t, screen)

	view := screen.View()
	assert.Equal(t, "Rachel", view.Props["title"])
	assert.Equal(t, "Rachel", textOf(t, view, "title"))
}

func TestChatRoomSend(t *testing.T) {
	e := newEnv(t)
	c := NewChatRoom(e.deps, "Rachel")
	mount(t, c)
	require.Len(t, c.state.Snapshot().Data.Thread.Messages, 4)

	ctx := context.Background()
	require.NoError(t, c.Handle(ctx, input(FieldMessage, "see you there")))
	require.NoError(t, c.Handle(ctx, components.Intent{Action: components.ActionSend}))

	data := c.state.Snapshot().Data
	require.Len(t, data.Thread.Messages, 5)
	last := data.Thread.Messages[4]
	assert.Equal(t, "see you there", last.Text)
	assert.True(t, last.IsSentByMe)
	assert.Empty(t, data.Draft)

	require.NoError(t, c.Handle(ctx, components.Intent{Action: components.ActionSend, Value: "   "}))
	assert.Len(t, c.state.Snapshot().Data.Thread.Messages, 5)

	list := NewChatList(e.deps)
	mount(t, list)
	require.Eventually(t, func() bool { return list.items.Snapshot().Loaded }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "see you there", list.items.Snapshot().Data[0].LastMessage)
}

func TestNotificationsActionsAreStubs(t *testing.T) {
	e := newEnv(t)
	n := NewNotifications(e.deps)
	mount(t, n)
	assert.Len(t, n.state.Snapshot().Data, 3)

	require.NoError(t, n.Handle(context.Background(), components.Intent{Action: components.ActionAccept, Target: "n1"}))
	assert.Equal(t, "Accepting friend requests is not implemented yet.", n.state.Snapshot().Message)
	require.NoError(t, n.Handle(context.Background(), components.Intent{Action: components.ActionReject, Target: "n2"}))
	assert.Equal(t, "Rejecting friend requests is not implemented yet.", n.state.Snapshot().Message)
}

func TestCameraCaptureReturnsHome(t *testing.T) {
	e := newEnv(t)
	e.deps.Permissions.Resolve(camera.PermissionCamera, true)
	c := NewCamera(e.deps)
	mount(t, c)

	require.Eventually(t, func() bool { return c.state.Snapshot().Data.Ready }, 2*time.Second, 5*time.Millisecond)
	_, err := e.device.PushFrame(camera.LensBack, jpegBytes)
	require.NoError(t, err)

	require.NoError(t, c.Handle(context.Background(), components.Intent{Action: components.ActionCapture}))
	require.Eventually(t, func() bool { return len(e.host.navigations()) == 1 }, 2*time.Second, 5*time.Millisecond)
	nav := e.host.navigations()[0]
	assert.Equal(t, navigation.RouteHome, nav.route)
	assert.Equal(t, navigation.NavOptions{PopUpTo: navigation.RouteCamera, Inclusive: true}, nav.opts)

	items, err := e.media.Query(context.Background(), media.CameraFolder)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCameraWithoutPermission(t *testing.T) {
	e := newEnv(t)
	c := NewCamera(e.deps)
	mount(t, c)

	assert.Equal(t, "Camera Access Required", textOf(t, c.View(), "preview"))
	require.NoError(t, c.Handle(context.Background(), components.Intent{Action: components.ActionCapture}))
	assert.Contains(t, e.deps.Permissions.Pending(), camera.PermissionCamera)

	e.deps.Permissions.Resolve(camera.PermissionCamera, false)
	require.Eventually(t, func() bool {
		return c.state.Snapshot().Data.Message == "Camera permission denied. Cannot use camera."
	}, 2*time.Second, 5*time.Millisecond)
}
