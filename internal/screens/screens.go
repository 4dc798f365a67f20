// Package screens holds the controllers behind each app screen. A controller
// reads the session, polls the API for its view data and exposes one-shot
// mutations that merge their result into the view without waiting for the
// next poll.
package screens

import (
	"context"
	"errors"
	"time"

	"campusdate/internal/api"
	"campusdate/internal/config"
	"campusdate/internal/models"
	"campusdate/internal/poll"
	"campusdate/internal/session"

	"github.com/rs/zerolog"
)

// Routes a screen may navigate to
const (
	RouteLogin   = "/login"
	RouteSignup  = "/signup"
	RouteProfile = "/profile"
)

var (
	// ErrNoSession is returned when a screen is mounted without a session
	ErrNoSession = errors.New("not logged in")
	// ErrNotMounted is returned by actions on a screen that was never mounted
	ErrNotMounted = errors.New("screen is not mounted")
)

// Navigator changes the current route
type Navigator interface {
	Replace(route string)
	Push(route string)
}

// Alerter shows a blocking message to the user
type Alerter interface {
	Alert(title, message string)
}

// EventSource delivers realtime nudges. realtime.Listener implements it.
type EventSource interface {
	Subscribe(eventType string, fn func(models.Event)) func()
}

// Deps are the collaborators shared by every screen
type Deps struct {
	API       *api.Client
	Session   *session.Manager
	Nav       Navigator
	Alerts    Alerter
	Events    EventSource
	Intervals config.PollConfig
	Log       zerolog.Logger
}

func (d Deps) intervals() config.PollConfig {
	return d.Intervals.WithDefaults()
}

// requireSession returns the stored session or redirects to login
func (d Deps) requireSession(ctx context.Context) (*models.Session, error) {
	s, ok := d.Session.GetSession(ctx)
	if !ok {
		d.Nav.Replace(RouteLogin)
		return nil, ErrNoSession
	}
	return s, nil
}

func (d Deps) alertError(title string, err error) {
	d.Alerts.Alert(title, api.Message(err))
}

// polled is the polling half embedded in every list screen
type polled[T any] struct {
	poller *poll.Poller[T]
	unsubs []func()
	log    zerolog.Logger
}

// start begins polling. Mounting again replaces the previous poller and its
// event subscriptions.
func (p *polled[T]) start(ctx context.Context, d Deps, name string, interval time.Duration, fetch poll.FetchFunc[T], reconcile poll.ReconcileFunc[T], events ...string) {
	p.Unmount()

	p.log = d.Log.With().Str("screen", name).Logger()
	p.poller = poll.New(name, interval, fetch, reconcile, poll.WithLogger(p.log))

	if d.Events != nil {
		for _, eventType := range events {
			p.unsubs = append(p.unsubs, d.Events.Subscribe(eventType, func(models.Event) {
				p.poller.Kick()
			}))
		}
	}

	// the first tick's error is already logged; the screen keeps polling
	_ = p.poller.Start(p.log.WithContext(ctx))
}

// Unmount stops polling. Results still in flight are dropped.
func (p *polled[T]) Unmount() {
	for _, unsub := range p.unsubs {
		unsub()
	}
	p.unsubs = nil
	if p.poller != nil {
		p.poller.Stop()
	}
}

// Refresh runs one fetch cycle now
func (p *polled[T]) Refresh(ctx context.Context) error {
	if p.poller == nil {
		return ErrNotMounted
	}
	return p.poller.Tick(p.log.WithContext(ctx))
}

// State reports the poll state of the screen
func (p *polled[T]) State() poll.State {
	if p.poller == nil {
		return poll.Idle
	}
	return p.poller.State()
}

// kick asks for an immediate refresh after a mutation
func (p *polled[T]) kick() {
	if p.poller != nil {
		p.poller.Kick()
	}
}
