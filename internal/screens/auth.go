package screens

import (
	"context"
	"fmt"
	"strings"

	"campusdate/internal/models"
)

// LoginScreen exchanges credentials for a stored session
type LoginScreen struct {
	deps Deps
}

// NewLoginScreen creates a login screen
func NewLoginScreen(deps Deps) *LoginScreen {
	return &LoginScreen{deps: deps}
}

// Login signs in with an email or username. On success the session is
// stored exactly as {token, user} and the profile screen is opened.
func (s *LoginScreen) Login(ctx context.Context, identifier, password string) (*models.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		s.deps.Alerts.Alert("Login failed", "Please enter your email or username and password.")
		return nil, fmt.Errorf("login: %w", models.ErrInvalidPayload)
	}

	req := models.LoginRequest{Password: password}
	if strings.Contains(identifier, "@") {
		req.Email = identifier
	} else {
		req.Username = identifier
	}

	resp, err := s.deps.API.Login(ctx, req)
	if err != nil {
		s.deps.alertError("Login failed", err)
		return nil, err
	}

	sess := resp.Session()
	if err := s.deps.Session.SetSession(ctx, sess); err != nil {
		s.deps.alertError("Login failed", err)
		return nil, err
	}

	s.deps.Log.Info().Int64("user_id", sess.User.UserID).Msg("Logged in")
	s.deps.Alerts.Alert("Login", fmt.Sprintf("Welcome back %s %s!", sess.User.FirstName, sess.User.LastName))
	s.deps.Nav.Push(RouteProfile)
	return &sess, nil
}

// SignupScreen creates an account
type SignupScreen struct {
	deps Deps
}

// NewSignupScreen creates a signup screen
func NewSignupScreen(deps Deps) *SignupScreen {
	return &SignupScreen{deps: deps}
}

// Signup creates the account and sends the user to the login screen
func (s *SignupScreen) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		s.deps.Alerts.Alert("Signup failed", "Please fill all fields.")
		return nil, fmt.Errorf("signup: %w", models.ErrInvalidPayload)
	}

	user, err := s.deps.API.Signup(ctx, req)
	if err != nil {
		s.deps.alertError("Signup failed", err)
		return nil, err
	}

	s.deps.Alerts.Alert("Signup", "Account created. Please log in.")
	s.deps.Nav.Replace(RouteLogin)
	return user, nil
}
