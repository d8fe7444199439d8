package screens

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/navigation"
)

// Field ids shared by the auth screens
const (
	FieldEmail    = "email"
	FieldUsername = "username"
	FieldPassword = "password"
)

// Submit targets
const (
	SubmitLogin    = "login"
	SubmitGoogle   = "google"
	SubmitRegister = "register"
)

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"-"`
	signedIn *gateway.Identity
}

// Login signs a user in with email and password or a Google ID token
type Login struct {
	deps Deps
	form *binder.Binder[loginForm]
}

// NewLogin creates the login screen
func NewLogin(d Deps) *Login {
	return &Login{deps: d, form: binder.New[loginForm]("login", d.Loop, d.Logger)}
}

func (l *Login) Route() string { return navigation.RouteLogin }

func (l *Login) Mount(context.Context) {}

func (l *Login) Observe(fn func()) func() { return l.form.OnChange(fn) }

func (l *Login) Unmount() { l.form.Unmount() }

func (l *Login) View() components.Node {
	s := l.form.Snapshot()
	body := []components.Node{
		components.Field(FieldEmail, "Email or Username", s.Data.Email, false),
		components.Field(FieldPassword, "Password", "", true),
	}
	body = append(body, status("error", s)...)
	if s.Loading {
		body = append(body, components.Loading("progress"))
	}
	body = append(body,
		components.Button("login", "Login", &components.Intent{Action: components.ActionSubmit, Target: SubmitLogin}),
		components.Button("google", "Sign in with Google", &components.Intent{Action: components.ActionSubmit, Target: SubmitGoogle}),
		components.Button("to_register", "Don't have an account? Register here",
			components.NavigateTo(navigation.RouteRegister, navigation.NavOptions{})),
	)
	return components.Node{Type: components.TypeScreen, ID: navigation.RouteLogin, Children: body}
}

func (l *Login) Handle(ctx context.Context, intent components.Intent) error {
	switch intent.Action {
	case components.ActionInput:
		return l.form.Mutate(func(s *binder.State[loginForm]) {
			switch intent.Target {
			case FieldEmail:
				s.Data.Email = intent.Value
			case FieldPassword:
				s.Data.Password = intent.Value
			}
			s.Err = ""
		})
	case components.ActionSubmit:
		switch intent.Target {
		case SubmitLogin:
			return l.submitPassword()
		case SubmitGoogle:
			return l.submitGoogle(intent.Value)
		}
	}
	return ErrUnhandledIntent
}

func (l *Login) submitPassword() error {
	data := l.form.Snapshot().Data
	email, password := strings.TrimSpace(data.Email), data.Password
	if email == "" || strings.TrimSpace(password) == "" {
		return l.fail("Email/Username and Password cannot be empty.")
	}
	l.signIn(func(ctx context.Context) (gateway.Identity, error) {
		identity, err := l.deps.Auth.SignInWithPassword(ctx, email, password)
		if err != nil {
			return gateway.Identity{}, errors.New(authMessage(err, "Login failed. Please try again."))
		}
		return identity, nil
	})
	return nil
}

func (l *Login) submitGoogle(idToken string) error {
	if idToken == "" {
		return l.fail("Google ID Token is null.")
	}
	l.signIn(func(ctx context.Context) (gateway.Identity, error) {
		identity, err := l.deps.Auth.SignInWithCredential(ctx, idToken)
		if err != nil {
			return gateway.Identity{}, errors.New(authMessage(err, "Google sign-in failed with Firebase."))
		}
		created, err := l.deps.Graph.EnsureProfile(ctx, identity)
		if err != nil {
			return gateway.Identity{}, errors.New("Google sign-in successful, but failed to save user data: " + gateway.Message(err))
		}
		if created {
			l.deps.Logger.Info("user data saved for new google user", zap.String("uid", identity.UID))
		}
		return identity, nil
	})
	return nil
}

func (l *Login) fail(msg string) error {
	return l.form.Mutate(func(s *binder.State[loginForm]) { s.Err = msg })
}

// signIn runs fetch and, on success, moves to home removing login from the
// back stack
func (l *Login) signIn(fetch func(ctx context.Context) (gateway.Identity, error)) {
	done := binder.Run(l.form, "submit", fetch, func(s *binder.State[loginForm], identity gateway.Identity, err error) {
		if err != nil {
			s.Err = err.Error()
			return
		}
		s.Data.signedIn = &identity
	})
	go func() {
		<-done
		if l.form.Unmounted() {
			return
		}
		identity := l.form.Snapshot().Data.signedIn
		if identity == nil {
			return
		}
		l.deps.Host.SignIn(*identity)
		if err := l.deps.Host.Navigate(navigation.RouteHome, navigation.NavOptions{PopUpTo: navigation.RouteLogin, Inclusive: true}); err != nil {
			l.deps.Logger.Error("navigate after sign in", zap.Error(err))
		}
	}()
}
