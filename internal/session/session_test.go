package session

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"campusdate/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type failingBackend struct{}

func (failingBackend) SetItem(context.Context, string, string) error { return errors.New("disk full") }
func (failingBackend) GetItem(context.Context, string) (string, error) {
	return "", errors.New("io error")
}
func (failingBackend) RemoveItem(context.Context, string) error { return errors.New("io error") }
func (failingBackend) Clear(context.Context) error              { return errors.New("io error") }

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "session.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite backend: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": sqlite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	type profile struct {
		Name      string   `json:"name"`
		Age       int      `json:"age"`
		Interests []string `json:"interests"`
	}

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(backend, zerolog.Nop())
			want := profile{Name: "Ada", Age: 30, Interests: []string{"chess", "hiking"}}

			store.Save(ctx, "profile", want)

			var got profile
			if !store.Get(ctx, "profile", &got) {
				t.Fatal("Expected value to be found after save")
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Expected %+v, got %+v", want, got)
			}

			store.Remove(ctx, "profile")
			if store.Get(ctx, "profile", &got) {
				t.Error("Expected value to be absent after remove")
			}

			store.Save(ctx, "a", 1)
			store.Save(ctx, "b", 2)
			store.Clear(ctx)
			var n int
			if store.Get(ctx, "a", &n) || store.Get(ctx, "b", &n) {
				t.Error("Expected all values to be absent after clear")
			}
		})
	}
}

func TestStoreOverwriteIsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend(), zerolog.Nop())

	store.Save(ctx, "k", "first")
	store.Save(ctx, "k", "second")

	var got string
	store.Get(ctx, "k", &got)
	if got != "second" {
		t.Errorf("Expected second, got %q", got)
	}
}

func TestStoreDegradesOnBackendFailure(t *testing.T) {
	ctx := context.Background()
	store := NewStore(failingBackend{}, zerolog.Nop())

	// none of these may panic
	store.Save(ctx, "k", "v")
	store.Remove(ctx, "k")
	store.Clear(ctx)
	store.Merge(ctx, "k", map[string]any{"a": 1})

	var v string
	if store.Get(ctx, "k", &v) {
		t.Error("Expected Get to report absence when the backend fails")
	}
}

func TestStoreGetUndecodable(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	backend.SetItem(ctx, "k", "{not json")
	store := NewStore(backend, zerolog.Nop())

	var v map[string]any
	if store.Get(ctx, "k", &v) {
		t.Error("Expected undecodable value to be treated as absent")
	}
}

func TestStoreMerge(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend(), zerolog.Nop())

	store.Save(ctx, "user", map[string]any{
		"token": "t",
		"user":  map[string]any{"userId": 7, "bio": "old"},
	})
	store.Merge(ctx, "user", map[string]any{
		"user": map[string]any{"bio": "new"},
	})

	var got map[string]any
	store.Get(ctx, "user", &got)
	user := got["user"].(map[string]any)
	if got["token"] != "t" {
		t.Errorf("Expected token to survive merge, got %v", got["token"])
	}
	if user["bio"] != "new" {
		t.Errorf("Expected bio to be merged, got %v", user["bio"])
	}
	if user["userId"] != float64(7) {
		t.Errorf("Expected userId to survive merge, got %v", user["userId"])
	}
}

func TestManagerSetGetClear(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewStore(NewMemoryBackend(), zerolog.Nop()), zerolog.Nop())

	if _, ok := m.GetSession(ctx); ok {
		t.Fatal("Expected no session initially")
	}

	s := models.Session{
		Token: "t",
		User:  models.UserSnapshot{UserID: 7, FirstName: "Ada", Interests: []string{"chess"}},
	}
	if err := m.SetSession(ctx, s); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	got, ok := m.GetSession(ctx)
	if !ok {
		t.Fatal("Expected session after SetSession")
	}
	if !reflect.DeepEqual(*got, s) {
		t.Errorf("Expected %+v, got %+v", s, *got)
	}
	if m.Token(ctx) != "t" {
		t.Errorf("Expected token t, got %q", m.Token(ctx))
	}

	m.ClearSession(ctx)
	if _, ok := m.GetSession(ctx); ok {
		t.Error("Expected no session after ClearSession")
	}
	if m.Token(ctx) != "" {
		t.Error("Expected empty token after ClearSession")
	}
}

func TestManagerRejectsInvalidSession(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewStore(NewMemoryBackend(), zerolog.Nop()), zerolog.Nop())

	err := m.SetSession(ctx, models.Session{Token: "", User: models.UserSnapshot{UserID: 1}})
	if !errors.Is(err, models.ErrInvalidPayload) {
		t.Errorf("Expected ErrInvalidPayload, got %v", err)
	}
}

func TestManagerUpdateUserKeepsToken(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewStore(NewMemoryBackend(), zerolog.Nop()), zerolog.Nop())
	m.SetSession(ctx, models.Session{Token: "t", User: models.UserSnapshot{UserID: 7, Bio: "old"}})

	if err := m.UpdateUser(ctx, models.UserSnapshot{UserID: 7, Bio: "new"}); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	s, _ := m.GetSession(ctx)
	if s.Token != "t" || s.User.Bio != "new" {
		t.Errorf("Unexpected session after update: %+v", s)
	}
}

func TestManagerExpiresAt(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewStore(NewMemoryBackend(), zerolog.Nop()), zerolog.Nop())

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "7",
		"exp":     exp.Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	m.SetSession(ctx, models.Session{Token: token, User: models.UserSnapshot{UserID: 7}})

	got, ok := m.ExpiresAt(ctx)
	if !ok {
		t.Fatal("Expected expiry to be readable")
	}
	if !got.Equal(exp) {
		t.Errorf("Expected %v, got %v", exp, got)
	}

	m.SetSession(ctx, models.Session{Token: "opaque", User: models.UserSnapshot{UserID: 7}})
	if _, ok := m.ExpiresAt(ctx); ok {
		t.Error("Expected opaque token to have no readable expiry")
	}
}
