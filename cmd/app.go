package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"campusdate/internal/api"
	"campusdate/internal/config"
	"campusdate/internal/realtime"
	"campusdate/internal/screens"
	"campusdate/internal/session"

	"github.com/rs/zerolog/log"
)

// app holds the collaborators shared by every command
type app struct {
	cfg     *config.Config
	backend *session.SQLiteBackend
	session *session.Manager
	client  *api.Client
	// clientErr is reported only by commands that need the network
	clientErr error
	out       io.Writer
	in        *bufio.Reader
}

func newApp(configPath string, out io.Writer, in io.Reader) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogger(cfg.Log.Level)

	backend, err := session.OpenSQLite(cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	mgr := session.NewManager(session.NewStore(backend, log.Logger), log.Logger)

	a := &app{
		cfg:     cfg,
		backend: backend,
		session: mgr,
		out:     out,
		in:      bufio.NewReader(in),
	}
	a.client, a.clientErr = api.New(cfg.API.URL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithTokenSource(mgr),
		api.WithLogger(log.Logger),
	)
	return a, nil
}

// Close releases the session store
func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close session store")
	}
}

// deps builds screen dependencies. It fails when no API URL is configured.
func (a *app) deps() (screens.Deps, error) {
	if a.clientErr != nil {
		return screens.Deps{}, a.clientErr
	}
	return screens.Deps{
		API:       a.client,
		Session:   a.session,
		Nav:       terminalNav{out: a.out},
		Alerts:    terminalAlerts{out: a.out},
		Intervals: a.cfg.Poll,
		Log:       log.Logger,
	}, nil
}

// watchDeps is deps plus a running realtime listener when one is configured
func (a *app) watchDeps(ctx context.Context) (screens.Deps, error) {
	d, err := a.deps()
	if err != nil {
		return d, err
	}
	if a.cfg.Realtime.Enabled && a.cfg.Realtime.URL != "" {
		l := realtime.NewListener(a.cfg.Realtime.URL, a.session, realtime.WithLogger(log.Logger))
		go l.Run(ctx)
		d.Events = l
	}
	return d, nil
}

// prompt reads one line from stdin
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// watch re-renders every interval until ctx is cancelled
func watch(ctx context.Context, interval time.Duration, render func()) error {
	render()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopped watching")
			return nil
		case <-ticker.C:
			render()
		}
	}
}
