package api

import (
	"context"
	"net/http"

	"campusdate/internal/models"
)

type likeRequest struct {
	LikerID int64 `json:"likerId"`
	LikedID int64 `json:"likedId"`
}

type matchRequest struct {
	User1ID int64 `json:"user1Id"`
	User2ID int64 `json:"user2Id"`
}

type chatRequest struct {
	MatchID int64 `json:"matchId"`
}

// AddLike records that liker likes liked
func (c *Client) AddLike(ctx context.Context, likerID, likedID int64) (*models.Like, error) {
	return writeOne[models.Like](ctx, c, "add like", http.MethodPost, "/likes", likeRequest{LikerID: likerID, LikedID: likedID})
}

// RemoveLike withdraws a like
func (c *Client) RemoveLike(ctx context.Context, likerID, likedID int64) error {
	return c.writeNoContent(ctx, "remove like", http.MethodDelete, idPath("/likes/%d/%d", likerID, likedID), nil)
}

// GetLikesByLiked lists the likes received by userID
func (c *Client) GetLikesByLiked(ctx context.Context, userID int64) ([]models.Like, error) {
	return getList[models.Like](ctx, c, "get likes received", idPath("/likes/liked/%d", userID), nil)
}

// GetLikesByLiker lists the likes sent by userID
func (c *Client) GetLikesByLiker(ctx context.Context, userID int64) ([]models.Like, error) {
	return getList[models.Like](ctx, c, "get likes sent", idPath("/likes/liker/%d", userID), nil)
}

// CreateMatch asks the API to confirm a match between two users.
// A nil match with a nil error means the like is not reciprocated yet: the
// API answered with no body or a falsy JSON value.
func (c *Client) CreateMatch(ctx context.Context, user1ID, user2ID int64) (*models.Match, error) {
	const op = "create match"
	raw, err := c.doJSON(ctx, op, http.MethodPost, "/match", nil, matchRequest{User1ID: user1ID, User2ID: user2ID})
	if err != nil {
		return nil, err
	}
	if isFalsyBody(raw) {
		return nil, nil
	}
	return decodeOne[models.Match](op, raw)
}

// GetMatch fetches a single match
func (c *Client) GetMatch(ctx context.Context, matchID int64) (*models.Match, error) {
	return getOne[models.Match](ctx, c, "get match", idPath("/match/%d", matchID), nil)
}

// GetMatchesByUser lists the matches of userID
func (c *Client) GetMatchesByUser(ctx context.Context, userID int64) ([]models.Match, error) {
	return getList[models.Match](ctx, c, "get matches", idPath("/match/user/%d", userID), nil)
}

// GetChatsForUser lists the chats of userID
func (c *Client) GetChatsForUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	return getList[models.Chat](ctx, c, "get chats", idPath("/chats/user/%d", userID), nil)
}

// CreateChat opens a chat for a match
func (c *Client) CreateChat(ctx context.Context, matchID int64) (*models.Chat, error) {
	return writeOne[models.Chat](ctx, c, "create chat", http.MethodPost, "/chats", chatRequest{MatchID: matchID})
}

// GetMessagesForChat lists messages in server order
func (c *Client) GetMessagesForChat(ctx context.Context, chatID int64) ([]models.Message, error) {
	return getList[models.Message](ctx, c, "get messages", idPath("/messages/chat/%d", chatID), nil)
}

// SendMessage posts a message and returns it as stored
func (c *Client) SendMessage(ctx context.Context, chatID, senderID int64, content string) (*models.Message, error) {
	req := models.SendMessageRequest{ChatID: chatID, SenderID: senderID, Content: content}
	return writeOne[models.Message](ctx, c, "send message", http.MethodPost, "/messages", req)
}
