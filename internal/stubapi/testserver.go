package stubapi

import (
	"net/http/httptest"
	"strings"
	"testing"

	"campusdate/internal/models"
)

const testSecret = "test-secret"

// TestServer is an httptest server backed by a fresh repository
type TestServer struct {
	*httptest.Server
	Repo   *Repository
	Tokens *TokenService
	Hub    *Hub
}

// NewTestServer starts a stub API that is closed when t finishes
func NewTestServer(t testing.TB) *TestServer {
	t.Helper()

	hub := NewHub()
	s := &TestServer{
		Repo:   NewRepository(),
		Tokens: NewTokenService(testSecret),
		Hub:    hub,
	}
	s.Server = httptest.NewServer(NewRouter(NewHandler(s.Repo, s.Tokens, hub), false))
	t.Cleanup(func() {
		hub.Close()
		s.Close()
	})
	return s
}

// WSURL returns the websocket endpoint of the server
func (s *TestServer) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

// SeedUser creates an account and returns it with a valid token
func (s *TestServer) SeedUser(t testing.TB, username, password string) (models.User, string) {
	t.Helper()

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user, err := s.Repo.CreateUser(models.SignupRequest{
		Username:  username,
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Tester",
		Email:     username + "@campus.test",
		Age:       21,
	}, hash)
	if err != nil {
		t.Fatalf("Failed to seed user %q: %v", username, err)
	}
	token, err := s.Tokens.Generate(user.UserID)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return user, token
}

// SeedMatch makes a and b like each other and confirms the match
func (s *TestServer) SeedMatch(t testing.TB, a, b int64) (models.Match, models.Chat) {
	t.Helper()

	if _, err := s.Repo.AddLike(a, b); err != nil {
		t.Fatalf("Failed to add like: %v", err)
	}
	if _, err := s.Repo.AddLike(b, a); err != nil {
		t.Fatalf("Failed to add like: %v", err)
	}
	match, ok, err := s.Repo.CreateMatch(a, b)
	if err != nil || !ok {
		t.Fatalf("Failed to create match: ok=%v err=%v", ok, err)
	}
	chat, err := s.Repo.CreateChat(match.MatchID)
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}
	return match, chat
}
