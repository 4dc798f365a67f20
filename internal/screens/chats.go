package screens

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"campusdate/internal/models"
	"campusdate/internal/poll"
)

// ErrEmptyMessage is returned when sending blank content
var ErrEmptyMessage = errors.New("message is empty")

// ChatSummary is one row of the chat list
type ChatSummary struct {
	ChatID      int64
	MatchID     int64
	OtherUserID int64
	Name        string
	Image       string
	LastMessage string
	LastSentAt  time.Time
}

// Preview returns the last message or a placeholder
func (c ChatSummary) Preview() string {
	if c.LastMessage == "" {
		return "No messages yet"
	}
	return c.LastMessage
}

type matchInfo struct {
	otherUserID int64
	name        string
	image       string
}

// lookupMatchInfo resolves the other participant of a match
func lookupMatchInfo(d Deps, userID int64) func(context.Context, int64) (matchInfo, error) {
	return func(ctx context.Context, matchID int64) (matchInfo, error) {
		m, err := d.API.GetMatch(ctx, matchID)
		if err != nil {
			return matchInfo{}, err
		}
		other := m.OtherUserID(userID)
		u, err := d.API.GetUser(ctx, other)
		if err != nil {
			return matchInfo{}, err
		}
		return matchInfo{otherUserID: other, name: u.FullName(), image: u.ImageBase64}, nil
	}
}

// ChatsScreen lists the chats of the signed-in user
type ChatsScreen struct {
	polled[[]ChatSummary]
	deps Deps

	mu    sync.RWMutex
	chats []ChatSummary
}

// NewChatsScreen creates a chat list screen
func NewChatsScreen(deps Deps) *ChatsScreen {
	return &ChatsScreen{deps: deps}
}

// Mount reads the session and starts polling
func (s *ChatsScreen) Mount(ctx context.Context) error {
	sess, err := s.deps.requireSession(ctx)
	if err != nil {
		return err
	}
	userID := sess.User.UserID

	fetch := func(ctx context.Context) ([]ChatSummary, error) {
		chats, err := s.deps.API.GetChatsForUser(ctx, userID)
		if err != nil {
			return nil, err
		}

		matchIDs := make([]int64, 0, len(chats))
		for _, c := range chats {
			matchIDs = append(matchIDs, c.MatchID)
		}
		infos := poll.FanOut(ctx, matchIDs, 0, lookupMatchInfo(s.deps, userID))

		out := make([]ChatSummary, 0, len(chats))
		for _, c := range chats {
			sum := ChatSummary{ChatID: c.ChatID, MatchID: c.MatchID}
			if info, ok := infos[c.MatchID]; ok {
				sum.OtherUserID = info.otherUserID
				sum.Name = info.name
				sum.Image = info.image
			}
			if last, ok := c.LastMessage(); ok {
				sum.LastMessage = last.Content
				sum.LastSentAt = last.SentAt
			}
			out = append(out, sum)
		}
		return out, nil
	}

	s.start(ctx, s.deps, "chats", s.deps.intervals().Chats, fetch, s.reconcile,
		models.EventMessageCreated, models.EventMatchCreated)
	return nil
}

func (s *ChatsScreen) reconcile(chats []ChatSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = chats
}

// Chats returns the rendered chat list
func (s *ChatsScreen) Chats() []ChatSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ChatSummary(nil), s.chats...)
}

// ChatScreen shows and sends the messages of one chat
type ChatScreen struct {
	polled[[]models.Message]
	deps    Deps
	chatID  int64
	matchID int64

	mu       sync.RWMutex
	userID   int64
	header   string
	messages []models.Message
	pending  map[int64]models.Message
}

// NewChatScreen creates a screen for chatID, which belongs to matchID
func NewChatScreen(deps Deps, chatID, matchID int64) *ChatScreen {
	return &ChatScreen{
		deps:    deps,
		chatID:  chatID,
		matchID: matchID,
		pending: make(map[int64]models.Message),
	}
}

// Mount reads the session, resolves the header and starts polling
func (s *ChatScreen) Mount(ctx context.Context) error {
	sess, err := s.deps.requireSession(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.userID = sess.User.UserID
	s.mu.Unlock()

	if s.matchID > 0 {
		info, err := lookupMatchInfo(s.deps, sess.User.UserID)(ctx, s.matchID)
		if err != nil {
			s.deps.Log.Warn().Err(err).Int64("match_id", s.matchID).Msg("Failed to resolve chat header")
		} else {
			s.mu.Lock()
			s.header = info.name
			s.mu.Unlock()
		}
	}

	fetch := func(ctx context.Context) ([]models.Message, error) {
		return s.deps.API.GetMessagesForChat(ctx, s.chatID)
	}
	s.start(ctx, s.deps, "chat", s.deps.intervals().Messages, fetch, s.reconcile, models.EventMessageCreated)
	return nil
}

// reconcile replaces the message list, keeping sent messages the fetch
// did not include yet
func (s *ChatScreen) reconcile(msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]struct{}, len(msgs))
	for _, m := range msgs {
		seen[m.MessageID] = struct{}{}
	}
	merged := append([]models.Message(nil), msgs...)
	for id, m := range s.pending {
		if _, ok := seen[id]; ok {
			delete(s.pending, id)
			continue
		}
		merged = append(merged, m)
	}
	sortMessages(merged)
	s.messages = merged
}

func sortMessages(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].SentAt.Equal(msgs[j].SentAt) {
			return msgs[i].SentAt.Before(msgs[j].SentAt)
		}
		return msgs[i].MessageID < msgs[j].MessageID
	})
}

// Header returns the display name of the other participant
func (s *ChatScreen) Header() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.header
}

// Messages returns the rendered messages, oldest first
func (s *ChatScreen) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages...)
}

// Send posts content and appends the stored message right away
func (s *ChatScreen) Send(ctx context.Context, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.RLock()
	userID := s.userID
	s.mu.RUnlock()
	if userID == 0 {
		return nil, ErrNotMounted
	}

	msg, err := s.deps.API.SendMessage(ctx, s.chatID, userID, content)
	if err != nil {
		s.deps.alertError("Error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.MessageID == msg.MessageID {
			return msg, nil
		}
	}
	s.pending[msg.MessageID] = *msg
	s.messages = append(s.messages, *msg)
	return msg, nil
}
