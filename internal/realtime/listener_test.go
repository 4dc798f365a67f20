package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusdate/internal/models"
	"campusdate/internal/stubapi"
)

type staticToken string

func (s staticToken) Token(context.Context) string { return string(s) }

func waitOnline(t *testing.T, s *stubapi.TestServer, userID int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !s.Hub.IsOnline(userID) {
		if time.Now().After(deadline) {
			t.Fatal("Listener never connected")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestListenerDispatchesBySubscription(t *testing.T) {
	s := stubapi.NewTestServer(t)
	user, token := s.SeedUser(t, "alice", "secret1")

	l := NewListener(s.WSURL(), staticToken(token), WithRetryDelay(10*time.Millisecond))

	messages := make(chan models.Event, 4)
	all := make(chan models.Event, 4)
	l.Subscribe(models.EventMessageCreated, func(e models.Event) { messages <- e })
	l.Subscribe("", func(e models.Event) { all <- e })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	waitOnline(t, s, user.UserID)

	s.Hub.Notify(models.Event{Type: models.EventMatchCreated, MatchID: 9}, user.UserID)
	s.Hub.Notify(models.Event{Type: models.EventMessageCreated, ChatID: 4}, user.UserID)

	select {
	case e := <-messages:
		if e.ChatID != 4 {
			t.Errorf("Expected chat 4, got %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected message event")
	}

	for i := 0; i < 2; i++ {
		select {
		case <-all:
		case <-time.After(2 * time.Second):
			t.Fatalf("Expected two events on the wildcard subscription, got %d", i)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	l := NewListener("ws://unused", staticToken("x"))

	calls := 0
	unsubscribe := l.Subscribe(models.EventTicketUpdated, func(models.Event) { calls++ })
	l.dispatch(models.Event{Type: models.EventTicketUpdated})
	unsubscribe()
	l.dispatch(models.Event{Type: models.EventTicketUpdated})

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestConnectWithoutToken(t *testing.T) {
	l := NewListener("ws://unused", staticToken(""))
	if err := l.Connect(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Errorf("Expected ErrNoToken, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := stubapi.NewTestServer(t)
	user, token := s.SeedUser(t, "alice", "secret1")
	l := NewListener(s.WSURL(), staticToken(token))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	waitOnline(t, s, user.UserID)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
