package screens

import (
	"context"
	"sync"

	"campusdate/internal/models"
	"campusdate/internal/poll"
)

// Card is a person shown on the matches screen
type Card struct {
	ID          int64
	OtherUserID int64
	Name        string
	Image       string
}

type matchesView struct {
	matches []Card
	likedBy []Card
}

// MatchesScreen lists confirmed matches and the users who liked you
type MatchesScreen struct {
	polled[matchesView]
	deps Deps

	mu   sync.RWMutex
	view matchesView
}

// NewMatchesScreen creates a matches screen
func NewMatchesScreen(deps Deps) *MatchesScreen {
	return &MatchesScreen{deps: deps}
}

// Mount reads the session and starts polling
func (s *MatchesScreen) Mount(ctx context.Context) error {
	sess, err := s.deps.requireSession(ctx)
	if err != nil {
		return err
	}
	userID := sess.User.UserID

	fetch := func(ctx context.Context) (matchesView, error) {
		matches, err := s.deps.API.GetMatchesByUser(ctx, userID)
		if err != nil {
			return matchesView{}, err
		}
		likes, err := s.deps.API.GetLikesByLiked(ctx, userID)
		if err != nil {
			return matchesView{}, err
		}

		ids := make([]int64, 0, len(matches)+len(likes))
		for _, m := range matches {
			ids = append(ids, m.OtherUserID(userID))
		}
		for _, l := range likes {
			ids = append(ids, l.LikerID)
		}
		users := poll.FanOut(ctx, ids, 0, func(ctx context.Context, id int64) (*models.User, error) {
			return s.deps.API.GetUser(ctx, id)
		})

		var view matchesView
		for _, m := range matches {
			other := m.OtherUserID(userID)
			if u, ok := users[other]; ok {
				view.matches = append(view.matches, Card{ID: m.MatchID, OtherUserID: other, Name: u.FullName(), Image: u.ImageBase64})
			}
		}
		for _, l := range likes {
			if u, ok := users[l.LikerID]; ok {
				view.likedBy = append(view.likedBy, Card{ID: l.LikeID, OtherUserID: l.LikerID, Name: u.FullName(), Image: u.ImageBase64})
			}
		}
		return view, nil
	}

	s.start(ctx, s.deps, "matches", s.deps.intervals().Matches, fetch, s.reconcile,
		models.EventMatchCreated, models.EventLikeReceived)
	return nil
}

func (s *MatchesScreen) reconcile(v matchesView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

// Matches returns the confirmed matches
func (s *MatchesScreen) Matches() []Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Card(nil), s.view.matches...)
}

// LikedBy returns the users who liked the signed-in user
func (s *MatchesScreen) LikedBy() []Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Card(nil), s.view.likedBy...)
}

// OpenChat returns the chat of a match, creating it when the API has none yet
func (s *MatchesScreen) OpenChat(ctx context.Context, matchID int64) (*models.Chat, error) {
	chat, err := s.deps.API.CreateChat(ctx, matchID)
	if err != nil {
		s.deps.alertError("Error", err)
		return nil, err
	}
	return chat, nil
}
