package screens

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"campusdate/internal/models"
)

// ErrNoCandidate is returned when the feed has nobody left to show
var ErrNoCandidate = errors.New("no more candidates")

// Outcome is the result of a swipe
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeLiked
	OutcomeMatched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLiked:
		return "liked"
	case OutcomeMatched:
		return "matched"
	default:
		return "none"
	}
}

type feedData struct {
	users []models.User
	liked map[int64]struct{}
}

// FeedScreen is the swipe feed. The current candidate is tracked by user
// id, so a refreshed list never shifts it onto someone else.
type FeedScreen struct {
	polled[feedData]
	deps Deps

	mu         sync.RWMutex
	userID     int64
	candidates []models.User
	swiped     map[int64]struct{}
	current    int64
}

// NewFeedScreen creates a swipe feed
func NewFeedScreen(deps Deps) *FeedScreen {
	return &FeedScreen{deps: deps, swiped: make(map[int64]struct{})}
}

// Mount reads the session and starts polling candidates
func (s *FeedScreen) Mount(ctx context.Context) error {
	sess, err := s.deps.requireSession(ctx)
	if err != nil {
		return err
	}
	userID := sess.User.UserID

	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	fetch := func(ctx context.Context) (feedData, error) {
		users, err := s.deps.API.GetUsers(ctx)
		if err != nil {
			return feedData{}, err
		}
		likes, err := s.deps.API.GetLikesByLiker(ctx, userID)
		if err != nil {
			return feedData{}, err
		}
		liked := make(map[int64]struct{}, len(likes))
		for _, l := range likes {
			liked[l.LikedID] = struct{}{}
		}
		return feedData{users: users, liked: liked}, nil
	}

	s.start(ctx, s.deps, "feed", s.deps.intervals().Feed, fetch, s.reconcile)
	return nil
}

func (s *FeedScreen) reconcile(data feedData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := make([]models.User, 0, len(data.users))
	for _, u := range data.users {
		if u.UserID == s.userID {
			continue
		}
		if _, ok := s.swiped[u.UserID]; ok {
			continue
		}
		if _, ok := data.liked[u.UserID]; ok {
			continue
		}
		candidates = append(candidates, u)
	}
	s.candidates = candidates

	if s.indexOf(s.current) < 0 {
		s.current = 0
		if len(candidates) > 0 {
			s.current = candidates[0].UserID
		}
	}
}

// indexOf finds id among the candidates. Caller holds mu.
func (s *FeedScreen) indexOf(id int64) int {
	if id == 0 {
		return -1
	}
	for i, u := range s.candidates {
		if u.UserID == id {
			return i
		}
	}
	return -1
}

// Current returns the candidate on top of the feed
func (s *FeedScreen) Current() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(s.current); i >= 0 {
		return s.candidates[i], true
	}
	return models.User{}, false
}

// Remaining returns how many candidates are left including the current one
func (s *FeedScreen) Remaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candidates)
}

// advance marks id as swiped and moves to the candidate that followed it
func (s *FeedScreen) advance(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.swiped[id] = struct{}{}
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.candidates = append(s.candidates[:i:i], s.candidates[i+1:]...)
	if s.current != id {
		return
	}
	s.current = 0
	if i < len(s.candidates) {
		s.current = s.candidates[i].UserID
	}
}

// Dismiss skips the current candidate
func (s *FeedScreen) Dismiss() {
	if cur, ok := s.Current(); ok {
		s.advance(cur.UserID)
	}
}

// Like likes the current candidate and asks the API to confirm a match
func (s *FeedScreen) Like(ctx context.Context) (Outcome, error) {
	cur, ok := s.Current()
	if !ok {
		return OutcomeNone, ErrNoCandidate
	}
	s.mu.RLock()
	userID := s.userID
	s.mu.RUnlock()

	if _, err := s.deps.API.AddLike(ctx, userID, cur.UserID); err != nil {
		s.deps.alertError("Error", err)
		return OutcomeNone, err
	}
	s.advance(cur.UserID)

	match, err := s.deps.API.CreateMatch(ctx, userID, cur.UserID)
	if err != nil {
		s.deps.alertError("Error", err)
		return OutcomeLiked, err
	}
	if match == nil {
		return OutcomeLiked, nil
	}

	s.deps.Log.Info().Int64("match_id", match.MatchID).Int64("user_id", cur.UserID).Msg("New match")
	s.deps.Alerts.Alert("It's a match!", fmt.Sprintf("You and %s like each other.", cur.FirstName))
	return OutcomeMatched, nil
}

// Unlike withdraws a like sent to likedID. The user becomes a candidate
// again once the refreshed list comes back.
func (s *FeedScreen) Unlike(ctx context.Context, likedID int64) error {
	s.mu.RLock()
	userID := s.userID
	s.mu.RUnlock()
	if userID == 0 {
		return ErrNotMounted
	}

	if err := s.deps.API.RemoveLike(ctx, userID, likedID); err != nil {
		s.deps.alertError("Error", err)
		return err
	}

	s.mu.Lock()
	delete(s.swiped, likedID)
	s.mu.Unlock()

	s.deps.Alerts.Alert("Feed", "Like removed.")
	return s.Refresh(ctx)
}
