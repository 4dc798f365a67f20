package stubapi

import (
	"net/http"
	"strings"

	"campusdate/internal/models"

	"github.com/rs/zerolog/log"
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

// AddLike handles POST /likes
func (h *Handler) AddLike(w http.ResponseWriter, r *http.Request) {
	var req likeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LikerID != GetUserID(r.Context()) {
		respondError(w, "likerId must be the authenticated user", http.StatusForbidden)
		return
	}

	like, err := h.repo.AddLike(req.LikerID, req.LikedID)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	h.hub.Notify(models.Event{Type: models.EventLikeReceived, UserID: req.LikerID}, req.LikedID)
	respondJSON(w, http.StatusCreated, like)
}

// RemoveLike handles DELETE /likes/{liker}/{liked}
func (h *Handler) RemoveLike(w http.ResponseWriter, r *http.Request) {
	liker, ok := urlID(w, r, "liker")
	if !ok {
		return
	}
	liked, ok := urlID(w, r, "liked")
	if !ok {
		return
	}
	if liker != GetUserID(r.Context()) {
		respondError(w, "cannot remove another user's like", http.StatusForbidden)
		return
	}
	if err := h.repo.RemoveLike(liker, liked); err != nil {
		respondRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LikesByLiked handles GET /likes/liked/{id}
func (h *Handler) LikesByLiked(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.repo.LikesByLiked(id))
}

// LikesByLiker handles GET /likes/liker/{id}
func (h *Handler) LikesByLiker(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.repo.LikesByLiker(id))
}

// CreateMatch handles POST /match. A like that is not reciprocated
// yields 204 with no body.
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller := GetUserID(r.Context())
	if caller != req.User1ID && caller != req.User2ID {
		respondError(w, "caller must be part of the match", http.StatusForbidden)
		return
	}

	match, ok, err := h.repo.CreateMatch(req.User1ID, req.User2ID)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	log.Info().
		Int64("match_id", match.MatchID).
		Int64("user1_id", match.User1ID).
		Int64("user2_id", match.User2ID).
		Msg("Match confirmed")

	h.hub.Notify(models.Event{Type: models.EventMatchCreated, MatchID: match.MatchID}, match.User1ID, match.User2ID)
	respondJSON(w, http.StatusOK, match)
}

// GetMatch handles GET /match/{id}
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	match, err := h.repo.GetMatch(id)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, match)
}

// MatchesByUser handles GET /match/user/{id}
func (h *Handler) MatchesByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.repo.MatchesByUser(id))
}

// ChatsByUser handles GET /chats/user/{id}
func (h *Handler) ChatsByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.repo.ChatsByUser(id))
}

// CreateChat handles POST /chats
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	chat, err := h.repo.CreateChat(req.MatchID)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, chat)
}

// MessagesByChat handles GET /messages/chat/{id}
func (h *Handler) MessagesByChat(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	messages, err := h.repo.MessagesByChat(id)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// SendMessage handles POST /messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, "content is required", http.StatusBadRequest)
		return
	}
	if req.SenderID != GetUserID(r.Context()) {
		respondError(w, "senderId must be the authenticated user", http.StatusForbidden)
		return
	}

	msg, err := h.repo.AddMessage(req.ChatID, req.SenderID, req.Content)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	if match, err := h.repo.ChatParticipants(req.ChatID); err == nil {
		event := models.Event{Type: models.EventMessageCreated, ChatID: req.ChatID, UserID: req.SenderID}
		h.hub.Notify(event, match.User1ID, match.User2ID)
	}
	respondJSON(w, http.StatusCreated, msg)
}
