package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"campusdate/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const defaultRetryDelay = 5 * time.Second

// ErrNoToken is returned by Connect when there is no session to authenticate with
var ErrNoToken = errors.New("no session token")

// TokenSource supplies the bearer token used in the handshake
type TokenSource interface {
	Token(ctx context.Context) string
}

// Handler receives one decoded event
type Handler func(models.Event)

// Listener keeps a websocket open to the event stream and fans incoming
// events out to subscribers. Events only nudge pollers; they carry no data
// the screens rely on.
type Listener struct {
	url    string
	tokens TokenSource
	dialer *websocket.Dialer
	retry  time.Duration
	log    zerolog.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

// Option configures a Listener
type Option func(*Listener)

// WithRetryDelay sets the pause between reconnect attempts
func WithRetryDelay(d time.Duration) Option {
	return func(l *Listener) {
		if d > 0 {
			l.retry = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(l *Listener) { l.log = log.With().Str("component", "realtime").Logger() }
}

// NewListener creates a listener for the websocket endpoint at rawURL
func NewListener(rawURL string, tokens TokenSource, opts ...Option) *Listener {
	l := &Listener{
		url:    rawURL,
		tokens: tokens,
		dialer: websocket.DefaultDialer,
		retry:  defaultRetryDelay,
		log:    zerolog.Nop(),
		subs:   make(map[string]map[int]Handler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Subscribe registers fn for events of eventType. An empty eventType
// receives every event. The returned func removes the subscription.
func (l *Listener) Subscribe(eventType string, fn func(models.Event)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	if l.subs[eventType] == nil {
		l.subs[eventType] = make(map[int]Handler)
	}
	l.subs[eventType][id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs[eventType], id)
	}
}

func (l *Listener) dispatch(event models.Event) {
	l.mu.RLock()
	handlers := make([]Handler, 0, len(l.subs[event.Type])+len(l.subs[""]))
	for _, fn := range l.subs[event.Type] {
		handlers = append(handlers, fn)
	}
	for _, fn := range l.subs[""] {
		handlers = append(handlers, fn)
	}
	l.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
}

// Run connects and reconnects until ctx ends
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.Connect(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.log.Warn().Err(err).Dur("retry_in", l.retry).Msg("Event stream disconnected")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// Connect opens one connection and reads events until it drops or ctx ends
func (l *Listener) Connect(ctx context.Context) error {
	token := l.tokens.Token(ctx)
	if token == "" {
		return ErrNoToken
	}

	u, err := url.Parse(l.url)
	if err != nil {
		return fmt.Errorf("invalid realtime URL %q: %w", l.url, err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := l.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial event stream: %w", err)
	}
	defer conn.Close()

	l.log.Info().Str("url", l.url).Msg("Event stream connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var event models.Event
		if err := json.Unmarshal(data, &event); err != nil {
			l.log.Error().Err(err).Msg("Failed to parse event")
			continue
		}
		if event.Type == "" {
			continue
		}
		l.dispatch(event)
	}
}
