package stubapi

import (
	"net/http"
	"strconv"
	"strings"

	"campusdate/internal/models"

	"github.com/rs/zerolog/log"
)

func (h *Handler) requireSelf(w http.ResponseWriter, r *http.Request, userID int64) bool {
	if userID != GetUserID(r.Context()) {
		respondError(w, "cannot act on behalf of another user", http.StatusForbidden)
		return false
	}
	return true
}

// PreferenceByUser handles GET /preferences/user/{id}
func (h *Handler) PreferenceByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	pref, err := h.repo.PreferenceByUser(id)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pref)
}

// CreatePreference handles POST /preferences
func (h *Handler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	var pref models.Preference
	if !decodeBody(w, r, &pref) {
		return
	}
	if !h.requireSelf(w, r, pref.User.UserID) {
		return
	}
	created, err := h.repo.CreatePreference(pref)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdatePreference handles PUT /preferences/{id}
func (h *Handler) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var pref models.Preference
	if !decodeBody(w, r, &pref) {
		return
	}
	updated, err := h.repo.UpdatePreference(id, pref)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeletePreference handles DELETE /preferences/{id}
func (h *Handler) DeletePreference(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.repo.DeletePreference(id); err != nil {
		respondRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTickets handles GET /tickets
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.repo.ListTickets())
}

// TicketsByUser handles GET /tickets/user/{id}
func (h *Handler) TicketsByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.repo.TicketsByUser(id))
}

// GetTicket handles GET /tickets/{id}
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	ticket, err := h.repo.GetTicket(id)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

// CreateTicket handles POST /tickets
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req models.TicketRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" || req.IssueType == "" {
		respondError(w, "issueType and description are required", http.StatusBadRequest)
		return
	}
	if !h.requireSelf(w, r, req.User.UserID) {
		return
	}
	ticket, err := h.repo.CreateTicket(req)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	log.Info().Int64("ticket_id", ticket.TicketID).Str("issue_type", ticket.IssueType).Msg("Ticket filed")
	respondJSON(w, http.StatusCreated, ticket)
}

// PatchTicket handles PATCH /tickets/{id}
func (h *Handler) PatchTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var patch models.TicketPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	ticket, err := h.repo.PatchTicket(id, patch)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	h.hub.Notify(models.Event{Type: models.EventTicketUpdated, UserID: ticket.UserID}, ticket.UserID)
	respondJSON(w, http.StatusOK, ticket)
}

// DeleteTicket handles DELETE /tickets/{id}
func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteTicket(id); err != nil {
		respondRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendAlert handles POST /emergency/alert
func (h *Handler) SendAlert(w http.ResponseWriter, r *http.Request) {
	var req models.EmergencyAlertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.requireSelf(w, r, req.UserID) {
		return
	}
	alert, err := h.repo.AddAlert(req)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	log.Warn().Int64("user_id", req.UserID).Int64("alert_id", alert.AlertID).Msg("Emergency alert received")
	respondJSON(w, http.StatusCreated, alert)
}

// AlertHistory handles GET /emergency/history?userId=
func (h *Handler) AlertHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, "userId is required", http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusOK, h.repo.AlertsByUser(userID))
}

// ContactsByUser handles GET /emergency/contacts/user/{id}
func (h *Handler) ContactsByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.repo.ContactsByUser(id))
}

func validContact(w http.ResponseWriter, c models.EmergencyContact) bool {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.PhoneNumber) == "" {
		respondError(w, "name and phoneNumber are required", http.StatusBadRequest)
		return false
	}
	return true
}

// CreateContact handles POST /emergency/contacts
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var c models.EmergencyContact
	if !decodeBody(w, r, &c) || !validContact(w, c) {
		return
	}
	if !h.requireSelf(w, r, c.User.UserID) {
		return
	}
	created, err := h.repo.CreateContact(c)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	h.hub.Notify(models.Event{Type: models.EventContactsChanged, UserID: c.User.UserID}, c.User.UserID)
	respondJSON(w, http.StatusCreated, created)
}

// UpdateContact handles PUT /emergency/contacts/{id}
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var c models.EmergencyContact
	if !decodeBody(w, r, &c) || !validContact(w, c) {
		return
	}
	updated, err := h.repo.UpdateContact(id, c)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	h.hub.Notify(models.Event{Type: models.EventContactsChanged, UserID: updated.User.UserID}, updated.User.UserID)
	respondJSON(w, http.StatusOK, updated)
}

// DeleteContact handles DELETE /emergency/contacts/{id}
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	owner, err := h.repo.DeleteContact(id)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	h.hub.Notify(models.Event{Type: models.EventContactsChanged, UserID: owner}, owner)
	w.WriteHeader(http.StatusNoContent)
}
