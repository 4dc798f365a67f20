package stubapi

import (
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"strings"

	"campusdate/internal/models"

	"github.com/rs/zerolog/log"
)

const maxImageSize = 8 << 20

// Login handles POST /users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identifier := strings.TrimSpace(req.Email)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" || req.Password == "" {
		respondError(w, "email or username and password are required", http.StatusBadRequest)
		return
	}

	user, hash, err := h.repo.UserByLogin(identifier)
	if err != nil || !CheckPassword(req.Password, hash) {
		respondError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.Generate(user.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.UserID).Msg("Failed to generate token")
		respondError(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	log.Info().Int64("user_id", user.UserID).Msg("User logged in")
	respondJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: &user})
}

// Signup handles POST /users/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		respondError(w, "email, username and password are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		respondError(w, "password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		respondError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	user, err := h.repo.CreateUser(req, hash)
	if err != nil {
		respondRepoError(w, err)
		return
	}

	log.Info().Int64("user_id", user.UserID).Str("username", user.Username).Msg("User created")
	respondJSON(w, http.StatusCreated, user)
}

// GetUser handles GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.repo.GetUser(id)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.repo.ListUsers())
}

// UpdateUser handles PATCH /users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if id != GetUserID(r.Context()) {
		respondError(w, "cannot update another user", http.StatusForbidden)
		return
	}
	var update models.UserUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	user, err := h.repo.UpdateUser(id, update)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if id != GetUserID(r.Context()) {
		respondError(w, "cannot delete another user", http.StatusForbidden)
		return
	}
	if err := h.repo.DeleteUser(id); err != nil {
		respondRepoError(w, err)
		return
	}
	log.Info().Int64("user_id", id).Msg("User deleted")
	w.WriteHeader(http.StatusNoContent)
}

// GetImage handles GET /image/user/{id}
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	img, err := h.repo.GetImage(id)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, img)
}

// EditImage handles PUT /image/edit (multipart: userId, imageFile)
func (h *Handler) EditImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		respondError(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseInt(r.FormValue("userId"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, "userId is required", http.StatusBadRequest)
		return
	}
	if userID != GetUserID(r.Context()) {
		respondError(w, "cannot edit another user's image", http.StatusForbidden)
		return
	}

	file, _, err := r.FormFile("imageFile")
	if err != nil {
		respondError(w, "imageFile is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		respondError(w, "Failed to read image", http.StatusBadRequest)
		return
	}

	img, err := h.repo.SetImage(userID, base64.StdEncoding.EncodeToString(data))
	if err != nil {
		respondRepoError(w, err)
		return
	}

	log.Info().Int64("user_id", userID).Int("bytes", len(data)).Msg("Image uploaded")
	respondJSON(w, http.StatusOK, img)
}
