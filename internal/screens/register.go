package screens

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/navigation"
)

type registerForm struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Register creates an account and its profile document
type Register struct {
	deps Deps
	form *binder.Binder[registerForm]
}

// NewRegister creates the register screen
func NewRegister(d Deps) *Register {
	return &Register{deps: d, form: binder.New[registerForm]("register", d.Loop, d.Logger)}
}

func (r *Register) Route() string { return navigation.RouteRegister }

func (r *Register) Mount(context.Context) {}

func (r *Register) Observe(fn func()) func() { return r.form.OnChange(fn) }

func (r *Register) Unmount() { r.form.Unmount() }

func (r *Register) View() components.Node {
	s := r.form.Snapshot()
	body := []components.Node{
		components.Field(FieldEmail, "Email", s.Data.Email, false),
		components.Field(FieldUsername, "Username", s.Data.Username, false),
		components.Field(FieldPassword, "Password", "", true),
	}
	body = append(body, status("status", s)...)
	if s.Loading {
		body = append(body, components.Loading("progress"))
	}
	body = append(body,
		components.Button("register", "Register", &components.Intent{Action: components.ActionSubmit, Target: SubmitRegister}),
		components.Button("to_login", "Already have an account? Login here.", &components.Intent{Action: components.ActionBack}),
	)
	return components.Node{Type: components.TypeScreen, ID: navigation.RouteRegister, Children: body}
}

func (r *Register) Handle(ctx context.Context, intent components.Intent) error {
	switch intent.Action {
	case components.ActionInput:
		return r.form.Mutate(func(s *binder.State[registerForm]) {
			switch intent.Target {
			case FieldEmail:
				s.Data.Email = intent.Value
			case FieldUsername:
				s.Data.Username = intent.Value
			case FieldPassword:
				s.Data.Password = intent.Value
			}
			s.Err = ""
			s.Message = ""
		})
	case components.ActionSubmit:
		if intent.Target == SubmitRegister {
			return r.submit()
		}
	}
	return ErrUnhandledIntent
}

// validate returns the first form problem, or ""
func (r *Register) validate(f registerForm) string {
	if strings.TrimSpace(f.Email) == "" || strings.TrimSpace(f.Username) == "" || strings.TrimSpace(f.Password) == "" {
		return "All fields must be filled."
	}
	if err := r.deps.Validate.Var(f.Email, "email"); err != nil {
		return "Please enter a valid email address."
	}
	if len(f.Password) < 6 {
		return "Password must be at least 6 characters long."
	}
	return ""
}

func (r *Register) submit() error {
	f := r.form.Snapshot().Data
	if msg := r.validate(f); msg != "" {
		return r.form.Mutate(func(s *binder.State[registerForm]) {
			s.Err = msg
			s.Message = ""
		})
	}
	if err := r.form.Mutate(func(s *binder.State[registerForm]) { s.Message = "" }); err != nil {
		return err
	}

	binder.Run(r.form, "submit", func(ctx context.Context) (string, error) {
		identity, err := r.deps.Auth.SignUp(ctx, f.Email, f.Password)
		if err != nil {
			return "", errors.New(authMessage(err, "Registration failed. Please try again."))
		}
		profile := models.UserProfile{ID: identity.UID, Username: f.Username, Email: identity.Email}
		if err := r.deps.Graph.CreateProfile(ctx, profile); err != nil {
			return "", errors.New("Registration successful, but failed to save user data: " + gateway.Message(err))
		}
		return f.Username, nil
	}, func(s *binder.State[registerForm], username string, err error) {
		if err != nil {
			s.Err = err.Error()
			return
		}
		s.Message = "Registration successful for " + username + "! You can now login."
	})
	return nil
}
