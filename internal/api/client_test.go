package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campusdate/internal/models"
	"campusdate/internal/stubapi"
)

type staticToken string

func (s staticToken) Token(context.Context) string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithTokenSource(staticToken("tok")))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func newStubClient(t *testing.T, s *stubapi.TestServer, token string) *Client {
	t.Helper()

	c, err := New(s.URL, WithTokenSource(staticToken(token)), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	for _, base := range []string{"", "   "} {
		if _, err := New(base); !errors.Is(err, ErrMissingBaseURL) {
			t.Errorf("New(%q): expected ErrMissingBaseURL, got %v", base, err)
		}
	}

	c, err := New("http://api.test/v1/")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.BaseURL() != "http://api.test/v1" {
		t.Errorf("Expected trailing slash trimmed, got %q", c.BaseURL())
	}
}

func TestRequestHeaders(t *testing.T) {
	var auth, requestID, contentType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		requestID = r.Header.Get("X-Request-ID")
		contentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"ticketId":1,"userId":2,"issueType":"OTHER","description":"x"}`))
	})

	_, err := c.CreateTicket(context.Background(), models.TicketRequest{
		User: models.UserRef{UserID: 2}, IssueType: models.IssueOther, Description: "x",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if auth != "Bearer tok" {
		t.Errorf("Expected bearer token, got %q", auth)
	}
	if requestID == "" {
		t.Error("Expected X-Request-ID to be set")
	}
	if contentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", contentType)
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Bad input"}`, "Bad input"},
		{"error field", http.StatusConflict, `{"error":"Taken"}`, "Taken"},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down"},
		{"html page", http.StatusBadGateway, "<html>oops</html>", "get user failed with status 502"},
		{"empty body", http.StatusInternalServerError, "", "get user failed with status 500"},
		{"empty json", http.StatusInternalServerError, `{}`, "get user failed with status 500"},
		{"json string", http.StatusUnauthorized, `"Invalid credentials"`, "Invalid credentials"},
		{"blank json string", http.StatusUnauthorized, `"  "`, "get user failed with status 401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.GetUser(context.Background(), 1)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if Message(err) != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, Message(err))
			}
			if apiErr.RequestID == "" {
				t.Error("Expected request id on error")
			}
		})
	}
}

func TestNotFoundPolicy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"nothing here"}`)
	})
	ctx := context.Background()

	chats, err := c.GetChatsForUser(ctx, 1)
	if err != nil {
		t.Fatalf("Expected collection 404 to be empty, got %v", err)
	}
	if chats == nil || len(chats) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", chats)
	}

	_, err = c.GetPreferenceByUser(ctx, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestInvalidResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{not json"},
		{"empty", ""},
		{"null", "null"},
		{"fails validation", `{"userId":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			if _, err := c.GetUser(context.Background(), 1); !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("Expected ErrInvalidResponse, got %v", err)
			}
		})
	}
}

func TestListTreatsNullAsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "null")
	})

	msgs, err := c.GetMessagesForChat(context.Background(), 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected no messages, got %d", len(msgs))
	}
}

func TestCreateMatchFalsyBody(t *testing.T) {
	for _, body := range []string{"", "null", "false", "0", `""`, " false\n"} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if body == "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			io.WriteString(w, body)
		})

		match, err := c.CreateMatch(context.Background(), 1, 2)
		if err != nil {
			t.Fatalf("body %q: unexpected error: %v", body, err)
		}
		if match != nil {
			t.Errorf("body %q: expected nil match, got %+v", body, match)
		}
	}
}

func TestCreateMatchRejectsEmptyObject(t *testing.T) {
	for _, body := range []string{`{}`, "true", "1"} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})

		if _, err := c.CreateMatch(context.Background(), 1, 2); !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("body %q: expected ErrInvalidResponse, got %v", body, err)
		}
	}
}

func TestTimeoutDoesNotMutateSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	for _, opts := range [][]Option{
		{WithHTTPClient(shared), WithTimeout(2 * time.Second)},
		{WithTimeout(2 * time.Second), WithHTTPClient(shared)},
	} {
		c, err := New("http://api.test", opts...)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if c.httpClient.Timeout != 2*time.Second {
			t.Errorf("Expected 2s timeout regardless of option order, got %v", c.httpClient.Timeout)
		}
		if c.httpClient == shared {
			t.Error("Expected a copy of the shared client")
		}
	}
	if shared.Timeout != time.Minute {
		t.Errorf("Expected shared client untouched, got %v", shared.Timeout)
	}

	c, err := New("http://api.test", WithHTTPClient(shared))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.httpClient != shared {
		t.Error("Expected the supplied client to be used as is without WithTimeout")
	}
}

func TestContextCancellation(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.GetUsers(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request expected")
	})
	ctx := context.Background()

	if _, err := c.UpdatePreference(ctx, models.Preference{}); err == nil {
		t.Error("Expected error for preference without id")
	}
	if _, err := c.UpdateContact(ctx, models.EmergencyContact{Name: "Mom", PhoneNumber: "1"}); err == nil {
		t.Error("Expected error for contact without id")
	}
}

func TestEndToEndAgainstStub(t *testing.T) {
	s := stubapi.NewTestServer(t)
	ctx := context.Background()

	anon := newStubClient(t, s, "")
	created, err := anon.Signup(ctx, models.SignupRequest{
		Username: "alice", Email: "alice@campus.test", Password: "secret1", FirstName: "Alice",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if created == nil || created.UserID == 0 {
		t.Fatalf("Expected created user, got %+v", created)
	}

	login, err := anon.Login(ctx, models.LoginRequest{Email: "alice@campus.test", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	sess := login.Session()
	if sess.Token == "" || sess.User.UserID != created.UserID {
		t.Errorf("Unexpected session: %+v", sess)
	}

	bob, _ := s.SeedUser(t, "bob", "secret1")
	c := newStubClient(t, s, login.Token)

	if _, err := c.AddLike(ctx, created.UserID, bob.UserID); err != nil {
		t.Fatalf("AddLike failed: %v", err)
	}
	match, err := c.CreateMatch(ctx, created.UserID, bob.UserID)
	if err != nil || match != nil {
		t.Fatalf("Expected no match yet, got %+v (%v)", match, err)
	}

	if _, err := s.Repo.AddLike(bob.UserID, created.UserID); err != nil {
		t.Fatalf("Failed to add reciprocal like: %v", err)
	}
	match, err = c.CreateMatch(ctx, created.UserID, bob.UserID)
	if err != nil || match == nil {
		t.Fatalf("Expected a match, got %+v (%v)", match, err)
	}

	chats, err := c.GetChatsForUser(ctx, created.UserID)
	if err != nil || len(chats) != 1 {
		t.Fatalf("Expected one chat, got %d (%v)", len(chats), err)
	}
	msg, err := c.SendMessage(ctx, chats[0].ChatID, created.UserID, "hello")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	msgs, err := c.GetMessagesForChat(ctx, chats[0].ChatID)
	if err != nil || len(msgs) != 1 || msgs[0].MessageID != msg.MessageID {
		t.Errorf("Expected the sent message back, got %+v (%v)", msgs, err)
	}

	if _, err := c.GetPreferenceByUser(ctx, created.UserID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing preference, got %v", err)
	}
}

func TestUploadImageAgainstStub(t *testing.T) {
	s := stubapi.NewTestServer(t)
	user, token := s.SeedUser(t, "alice", "secret1")
	c := newStubClient(t, s, token)

	img, err := c.UploadImage(context.Background(), user.UserID, "me.jpg", []byte("jpegbytes"))
	if err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}
	if img.ImageBase64 != "anBlZ2J5dGVz" {
		t.Errorf("Expected base64 of upload, got %q", img.ImageBase64)
	}

	got, err := c.GetUser(context.Background(), user.UserID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !strings.HasPrefix(got.ImageBase64, "anBlZ") {
		t.Errorf("Expected user image to be set, got %q", got.ImageBase64)
	}
}

func TestUnauthorizedMessage(t *testing.T) {
	s := stubapi.NewTestServer(t)
	c := newStubClient(t, s, "")

	_, err := c.GetUsers(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 error, got %v", err)
	}
	if apiErr.Message != "Authorization header required" {
		t.Errorf("Unexpected message %q", apiErr.Message)
	}
}

func TestOperationsAgainstStub(t *testing.T) {
	s := stubapi.NewTestServer(t)
	ctx := context.Background()

	alice, token := s.SeedUser(t, "alice", "secret1")
	bob, _ := s.SeedUser(t, "bob", "secret1")
	match, chat := s.SeedMatch(t, alice.UserID, bob.UserID)
	ticket, err := s.Repo.CreateTicket(models.TicketRequest{
		User: models.UserRef{UserID: alice.UserID}, IssueType: models.IssueBugReport, Description: "crash",
	})
	if err != nil {
		t.Fatalf("Failed to seed ticket: %v", err)
	}
	pref, err := s.Repo.CreatePreference(models.Preference{User: models.UserRef{UserID: alice.UserID}, MinAge: 18, MaxAge: 30})
	if err != nil {
		t.Fatalf("Failed to seed preference: %v", err)
	}

	c := newStubClient(t, s, token)

	// cases run in order and share the stub state
	tests := []struct {
		name     string
		call     func(t *testing.T) error
		notFound bool
	}{
		{"create chat returns existing", func(t *testing.T) error {
			got, err := c.CreateChat(ctx, match.MatchID)
			if err == nil && got.ChatID != chat.ChatID {
				t.Errorf("Expected chat %d, got %d", chat.ChatID, got.ChatID)
			}
			return err
		}, false},
		{"create chat for unknown match", func(t *testing.T) error {
			_, err := c.CreateChat(ctx, 9999)
			return err
		}, true},
		{"remove like", func(t *testing.T) error {
			err := c.RemoveLike(ctx, alice.UserID, bob.UserID)
			if n := len(s.Repo.LikesByLiker(alice.UserID)); n != 0 {
				t.Errorf("Expected no likes left, got %d", n)
			}
			return err
		}, false},
		{"remove missing like", func(t *testing.T) error {
			return c.RemoveLike(ctx, alice.UserID, bob.UserID)
		}, true},
		{"get all tickets", func(t *testing.T) error {
			got, err := c.GetAllTickets(ctx)
			if err == nil && (len(got) != 1 || got[0].TicketID != ticket.TicketID) {
				t.Errorf("Expected the seeded ticket, got %+v", got)
			}
			return err
		}, false},
		{"get ticket", func(t *testing.T) error {
			got, err := c.GetTicket(ctx, ticket.TicketID)
			if err == nil && got.Description != "crash" {
				t.Errorf("Expected seeded description, got %q", got.Description)
			}
			return err
		}, false},
		{"patch ticket", func(t *testing.T) error {
			status := models.TicketStatusResolved
			got, err := c.PatchTicket(ctx, ticket.TicketID, models.TicketPatch{Status: &status})
			if err == nil && (got.StatusOrPending() != models.TicketStatusResolved || got.ResolvedAt == nil) {
				t.Errorf("Expected resolved ticket, got %+v", got)
			}
			return err
		}, false},
		{"patch missing ticket", func(t *testing.T) error {
			_, err := c.PatchTicket(ctx, 9999, models.TicketPatch{})
			return err
		}, true},
		{"delete ticket", func(t *testing.T) error {
			return c.DeleteTicket(ctx, ticket.TicketID)
		}, false},
		{"get deleted ticket", func(t *testing.T) error {
			_, err := c.GetTicket(ctx, ticket.TicketID)
			return err
		}, true},
		{"delete missing ticket", func(t *testing.T) error {
			return c.DeleteTicket(ctx, ticket.TicketID)
		}, true},
		{"get missing image", func(t *testing.T) error {
			_, err := c.GetImageByUser(ctx, alice.UserID)
			return err
		}, true},
		{"get image", func(t *testing.T) error {
			if _, err := s.Repo.SetImage(alice.UserID, "aW1n"); err != nil {
				t.Fatalf("Failed to seed image: %v", err)
			}
			got, err := c.GetImageByUser(ctx, alice.UserID)
			if err == nil && got.ImageBase64 != "aW1n" {
				t.Errorf("Expected seeded image, got %q", got.ImageBase64)
			}
			return err
		}, false},
		{"delete preference", func(t *testing.T) error {
			return c.DeletePreference(ctx, pref.PreferenceID)
		}, false},
		{"get deleted preference", func(t *testing.T) error {
			_, err := c.GetPreferenceByUser(ctx, alice.UserID)
			return err
		}, true},
		{"delete missing preference", func(t *testing.T) error {
			return c.DeletePreference(ctx, pref.PreferenceID)
		}, true},
		{"delete user", func(t *testing.T) error {
			return c.DeleteUser(ctx, alice.UserID)
		}, false},
		{"get deleted user", func(t *testing.T) error {
			_, err := c.GetUser(ctx, alice.UserID)
			return err
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(t)
			if tt.notFound {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("Expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
