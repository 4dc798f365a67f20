package stubapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Handler serves every API endpoint from an in-memory repository
type Handler struct {
	repo   *Repository
	tokens *TokenService
	hub    *Hub
}

// NewHandler creates a new handler
func NewHandler(repo *Repository, tokens *TokenService, hub *Hub) *Handler {
	return &Handler{repo: repo, tokens: tokens, hub: hub}
}

// NewRouter wires the handler into a chi router
func NewRouter(h *Handler, requestLog bool) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if requestLog {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Public routes
	r.Post("/users/login", h.Login)
	r.Post("/users/signup", h.Signup)
	r.Get("/ws", h.HandleWebSocket)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.tokens))

		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
		r.Patch("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)

		r.Get("/image/user/{id}", h.GetImage)
		r.Put("/image/edit", h.EditImage)

		r.Post("/likes", h.AddLike)
		r.Delete("/likes/{liker}/{liked}", h.RemoveLike)
		r.Get("/likes/liked/{id}", h.LikesByLiked)
		r.Get("/likes/liker/{id}", h.LikesByLiker)

		r.Post("/match", h.CreateMatch)
		r.Get("/match/{id}", h.GetMatch)
		r.Get("/match/user/{id}", h.MatchesByUser)

		r.Post("/chats", h.CreateChat)
		r.Get("/chats/user/{id}", h.ChatsByUser)
		r.Post("/messages", h.SendMessage)
		r.Get("/messages/chat/{id}", h.MessagesByChat)

		r.Post("/preferences", h.CreatePreference)
		r.Get("/preferences/user/{id}", h.PreferenceByUser)
		r.Put("/preferences/{id}", h.UpdatePreference)
		r.Delete("/preferences/{id}", h.DeletePreference)

		r.Get("/tickets", h.ListTickets)
		r.Post("/tickets", h.CreateTicket)
		r.Get("/tickets/user/{id}", h.TicketsByUser)
		r.Get("/tickets/{id}", h.GetTicket)
		r.Patch("/tickets/{id}", h.PatchTicket)
		r.Delete("/tickets/{id}", h.DeleteTicket)

		r.Post("/emergency/alert", h.SendAlert)
		r.Get("/emergency/history", h.AlertHistory)
		r.Post("/emergency/contacts", h.CreateContact)
		r.Get("/emergency/contacts/user/{id}", h.ContactsByUser)
		r.Put("/emergency/contacts/{id}", h.UpdateContact)
		r.Delete("/emergency/contacts/{id}", h.DeleteContact)
	})

	return r
}

// Serve runs the development API on addr until ctx is cancelled
func Serve(ctx context.Context, addr, jwtSecret string) error {
	hub := NewHub()
	h := NewHandler(NewRepository(), NewTokenService(jwtSecret), hub)

	srv := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(h, true),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting development API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down development API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	log.Info().Msg("Development API exited")
	return nil
}
