package stubapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"campusdate/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a record would duplicate another
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned when the caller may not touch a record
	ErrForbidden = errors.New("forbidden")
)

type userRecord struct {
	user         models.User
	passwordHash string
}

// Repository is an in-memory store of every API resource
type Repository struct {
	mu       sync.RWMutex
	nextID   int64
	now      func() time.Time
	users    map[int64]*userRecord
	likes    map[int64]models.Like
	matches  map[int64]models.Match
	chats    map[int64]*models.Chat
	prefs    map[int64]models.Preference
	tickets  map[int64]models.Ticket
	alerts   map[int64]models.EmergencyAlert
	contacts map[int64]models.EmergencyContact
	images   map[int64]string
}

// NewRepository creates an empty repository
func NewRepository() *Repository {
	return &Repository{
		now:      time.Now,
		users:    make(map[int64]*userRecord),
		likes:    make(map[int64]models.Like),
		matches:  make(map[int64]models.Match),
		chats:    make(map[int64]*models.Chat),
		prefs:    make(map[int64]models.Preference),
		tickets:  make(map[int64]models.Ticket),
		alerts:   make(map[int64]models.EmergencyAlert),
		contacts: make(map[int64]models.EmergencyContact),
		images:   make(map[int64]string),
	}
}

func (r *Repository) id() int64 {
	r.nextID++
	return r.nextID
}

func sortedValues[V any](m map[int64]V, keep func(V) bool) []V {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// CreateUser creates a new account with an already hashed password
func (r *Repository) CreateUser(req models.SignupRequest, passwordHash string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	for _, rec := range r.users {
		if email != "" && strings.EqualFold(rec.user.Email, email) {
			return models.User{}, fmt.Errorf("email already taken: %w", ErrConflict)
		}
		if req.Username != "" && rec.user.Username == req.Username {
			return models.User{}, fmt.Errorf("username already taken: %w", ErrConflict)
		}
	}

	user := models.User{
		UserID:    r.id(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Username:  req.Username,
		Age:       req.Age,
	}
	r.users[user.UserID] = &userRecord{user: user, passwordHash: passwordHash}
	return user, nil
}

// UserByLogin finds a user by email or username
func (r *Repository) UserByLogin(identifier string) (models.User, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.users {
		if strings.EqualFold(rec.user.Email, identifier) || rec.user.Username == identifier {
			return r.withImage(rec.user), rec.passwordHash, nil
		}
	}
	return models.User{}, "", fmt.Errorf("user not found: %w", ErrNotFound)
}

func (r *Repository) withImage(u models.User) models.User {
	u.ImageBase64 = r.images[u.UserID]
	return u
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(id int64) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return r.withImage(rec.user), nil
}

// ListUsers returns every user ordered by ID
func (r *Repository) ListUsers() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := sortedValues(r.users, nil)
	out := make([]models.User, 0, len(recs))
	for _, rec := range recs {
		out = append(out, r.withImage(rec.user))
	}
	return out
}

// UpdateUser applies the non-nil fields of update
func (r *Repository) UpdateUser(id int64, update models.UserUpdate) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	u := &rec.user
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&u.FirstName, update.FirstName)
	setString(&u.LastName, update.LastName)
	setString(&u.Email, update.Email)
	setString(&u.Username, update.Username)
	setString(&u.Bio, update.Bio)
	setString(&u.Institution, update.Institution)
	setString(&u.Gender, update.Gender)
	setString(&u.RelationshipType, update.RelationshipType)
	if update.Age != nil {
		u.Age = *update.Age
	}
	if update.Interests != nil {
		u.Interests = update.Interests
	}
	return r.withImage(*u), nil
}

// DeleteUser removes a user
func (r *Repository) DeleteUser(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	delete(r.users, id)
	delete(r.images, id)
	return nil
}

// AddLike records a like. Liking twice returns the existing like.
func (r *Repository) AddLike(likerID, likedID int64) (models.Like, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if likerID == likedID {
		return models.Like{}, fmt.Errorf("cannot like yourself: %w", ErrConflict)
	}
	if _, ok := r.users[likedID]; !ok {
		return models.Like{}, fmt.Errorf("liked user not found: %w", ErrNotFound)
	}
	if like, ok := r.findLike(likerID, likedID); ok {
		return like, nil
	}

	like := models.Like{
		LikeID:    r.id(),
		LikerID:   likerID,
		LikedID:   likedID,
		CreatedAt: r.now(),
	}
	r.likes[like.LikeID] = like
	return like, nil
}

func (r *Repository) findLike(likerID, likedID int64) (models.Like, bool) {
	for _, l := range r.likes {
		if l.LikerID == likerID && l.LikedID == likedID {
			return l, true
		}
	}
	return models.Like{}, false
}

// RemoveLike deletes a like
func (r *Repository) RemoveLike(likerID, likedID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	like, ok := r.findLike(likerID, likedID)
	if !ok {
		return fmt.Errorf("like not found: %w", ErrNotFound)
	}
	delete(r.likes, like.LikeID)
	return nil
}

// LikesByLiked lists likes received by userID
func (r *Repository) LikesByLiked(userID int64) []models.Like {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.likes, func(l models.Like) bool { return l.LikedID == userID })
}

// LikesByLiker lists likes sent by userID
func (r *Repository) LikesByLiker(userID int64) []models.Like {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.likes, func(l models.Like) bool { return l.LikerID == userID })
}

// CreateMatch confirms a match when both users like each other.
// The boolean is false when the like is not reciprocated.
func (r *Repository) CreateMatch(user1ID, user2ID int64) (models.Match, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.findLike(user1ID, user2ID); !ok {
		return models.Match{}, false, nil
	}
	if _, ok := r.findLike(user2ID, user1ID); !ok {
		return models.Match{}, false, nil
	}

	for _, m := range r.matches {
		if (m.User1ID == user1ID && m.User2ID == user2ID) || (m.User1ID == user2ID && m.User2ID == user1ID) {
			return m, true, nil
		}
	}

	u1, ok1 := r.users[user1ID]
	u2, ok2 := r.users[user2ID]
	if !ok1 || !ok2 {
		return models.Match{}, false, fmt.Errorf("match participant not found: %w", ErrNotFound)
	}

	match := models.Match{
		MatchID:        r.id(),
		User1ID:        user1ID,
		User2ID:        user2ID,
		User1FirstName: u1.user.FirstName,
		User1LastName:  u1.user.LastName,
		User2FirstName: u2.user.FirstName,
		User2LastName:  u2.user.LastName,
		CreatedAt:      r.now(),
	}
	r.matches[match.MatchID] = match

	chat := &models.Chat{ChatID: r.id(), MatchID: match.MatchID, Messages: []models.Message{}}
	r.chats[chat.ChatID] = chat

	return match, true, nil
}

// GetMatch retrieves a match by ID
func (r *Repository) GetMatch(id int64) (models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[id]
	if !ok {
		return models.Match{}, fmt.Errorf("match not found: %w", ErrNotFound)
	}
	return m, nil
}

// MatchesByUser lists matches involving userID
func (r *Repository) MatchesByUser(userID int64) []models.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.matches, func(m models.Match) bool {
		return m.User1ID == userID || m.User2ID == userID
	})
}

func copyChat(c *models.Chat) models.Chat {
	out := *c
	out.Messages = append([]models.Message{}, c.Messages...)
	return out
}

// ChatsByUser lists chats whose match involves userID
func (r *Repository) ChatsByUser(userID int64) []models.Chat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chats := sortedValues(r.chats, func(c *models.Chat) bool {
		m := r.matches[c.MatchID]
		return m.User1ID == userID || m.User2ID == userID
	})
	out := make([]models.Chat, 0, len(chats))
	for _, c := range chats {
		out = append(out, copyChat(c))
	}
	return out
}

// CreateChat opens a chat for a match, returning the existing one if present
func (r *Repository) CreateChat(matchID int64) (models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.matches[matchID]; !ok {
		return models.Chat{}, fmt.Errorf("match not found: %w", ErrNotFound)
	}
	for _, c := range r.chats {
		if c.MatchID == matchID {
			return copyChat(c), nil
		}
	}
	chat := &models.Chat{ChatID: r.id(), MatchID: matchID, Messages: []models.Message{}}
	r.chats[chat.ChatID] = chat
	return copyChat(chat), nil
}

// ChatParticipants returns the match of a chat
func (r *Repository) ChatParticipants(chatID int64) (models.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.chats[chatID]
	if !ok {
		return models.Match{}, fmt.Errorf("chat not found: %w", ErrNotFound)
	}
	return r.matches[c.MatchID], nil
}

// MessagesByChat lists messages in send order
func (r *Repository) MessagesByChat(chatID int64) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("chat not found: %w", ErrNotFound)
	}
	return append([]models.Message{}, c.Messages...), nil
}

// AddMessage appends a message from a chat participant
func (r *Repository) AddMessage(chatID, senderID int64, content string) (models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[chatID]
	if !ok {
		return models.Message{}, fmt.Errorf("chat not found: %w", ErrNotFound)
	}
	m := r.matches[c.MatchID]
	if m.User1ID != senderID && m.User2ID != senderID {
		return models.Message{}, fmt.Errorf("sender is not a member of this chat: %w", ErrForbidden)
	}

	msg := models.Message{
		MessageID: r.id(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		SentAt:    r.now(),
	}
	c.Messages = append(c.Messages, msg)
	return msg, nil
}

// PreferenceByUser retrieves the preference of userID
func (r *Repository) PreferenceByUser(userID int64) (models.Preference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.prefs {
		if p.User.UserID == userID {
			return p, nil
		}
	}
	return models.Preference{}, fmt.Errorf("preference not found: %w", ErrNotFound)
}

// CreatePreference stores a preference; each user has at most one
func (r *Repository) CreatePreference(p models.Preference) (models.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.prefs {
		if existing.User.UserID == p.User.UserID {
			return models.Preference{}, fmt.Errorf("preference already exists: %w", ErrConflict)
		}
	}
	p.PreferenceID = r.id()
	r.prefs[p.PreferenceID] = p
	return p, nil
}

// UpdatePreference replaces a preference wholesale
func (r *Repository) UpdatePreference(id int64, p models.Preference) (models.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.prefs[id]
	if !ok {
		return models.Preference{}, fmt.Errorf("preference not found: %w", ErrNotFound)
	}
	p.PreferenceID = id
	p.User = existing.User
	r.prefs[id] = p
	return p, nil
}

// DeletePreference removes a preference
func (r *Repository) DeletePreference(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.prefs[id]; !ok {
		return fmt.Errorf("preference not found: %w", ErrNotFound)
	}
	delete(r.prefs, id)
	return nil
}

// ListTickets returns every ticket
func (r *Repository) ListTickets() []models.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.tickets, nil)
}

// TicketsByUser lists tickets filed by userID
func (r *Repository) TicketsByUser(userID int64) []models.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.tickets, func(t models.Ticket) bool { return t.UserID == userID })
}

// GetTicket retrieves a ticket by ID
func (r *Repository) GetTicket(id int64) (models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok {
		return models.Ticket{}, fmt.Errorf("ticket not found: %w", ErrNotFound)
	}
	return t, nil
}

// CreateTicket files a ticket with no status yet
func (r *Repository) CreateTicket(req models.TicketRequest) (models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[req.User.UserID]; !ok {
		return models.Ticket{}, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	now := r.now()
	t := models.Ticket{
		TicketID:    r.id(),
		UserID:      req.User.UserID,
		IssueType:   req.IssueType,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.tickets[t.TicketID] = t
	return t, nil
}

// PatchTicket applies a partial update; resolving stamps ResolvedAt
func (r *Repository) PatchTicket(id int64, patch models.TicketPatch) (models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return models.Ticket{}, fmt.Errorf("ticket not found: %w", ErrNotFound)
	}
	if patch.IssueType != nil {
		t.IssueType = *patch.IssueType
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		status := *patch.Status
		t.Status = &status
		if status == models.TicketStatusResolved {
			now := r.now()
			t.ResolvedAt = &now
		}
	}
	if patch.ResolvedBy != nil {
		by := *patch.ResolvedBy
		t.ResolvedBy = &by
	}
	t.UpdatedAt = r.now()
	r.tickets[id] = t
	return t, nil
}

// DeleteTicket removes a ticket
func (r *Repository) DeleteTicket(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[id]; !ok {
		return fmt.Errorf("ticket not found: %w", ErrNotFound)
	}
	delete(r.tickets, id)
	return nil
}

// AddAlert records an emergency alert
func (r *Repository) AddAlert(req models.EmergencyAlertRequest) (models.EmergencyAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[req.UserID]; !ok {
		return models.EmergencyAlert{}, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	a := models.EmergencyAlert{
		AlertID:   r.id(),
		UserID:    req.UserID,
		Message:   req.Message,
		Location:  req.Location,
		Status:    "sent",
		CreatedAt: r.now(),
	}
	r.alerts[a.AlertID] = a
	return a, nil
}

// AlertsByUser lists alerts of userID, newest first
func (r *Repository) AlertsByUser(userID int64) []models.EmergencyAlert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alerts := sortedValues(r.alerts, func(a models.EmergencyAlert) bool { return a.UserID == userID })
	for i, j := 0, len(alerts)-1; i < j; i, j = i+1, j-1 {
		alerts[i], alerts[j] = alerts[j], alerts[i]
	}
	return alerts
}

// ContactsByUser lists emergency contacts of userID
func (r *Repository) ContactsByUser(userID int64) []models.EmergencyContact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.contacts, func(c models.EmergencyContact) bool { return c.User.UserID == userID })
}

// CreateContact stores an emergency contact
func (r *Repository) CreateContact(c models.EmergencyContact) (models.EmergencyContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[c.User.UserID]; !ok {
		return models.EmergencyContact{}, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	c.ContactID = r.id()
	r.contacts[c.ContactID] = c
	return c, nil
}

// UpdateContact replaces the name and number of a contact
func (r *Repository) UpdateContact(id int64, c models.EmergencyContact) (models.EmergencyContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.contacts[id]
	if !ok {
		return models.EmergencyContact{}, fmt.Errorf("contact not found: %w", ErrNotFound)
	}
	existing.Name = c.Name
	existing.PhoneNumber = c.PhoneNumber
	r.contacts[id] = existing
	return existing, nil
}

// DeleteContact removes a contact and returns its owner
func (r *Repository) DeleteContact(id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contacts[id]
	if !ok {
		return 0, fmt.Errorf("contact not found: %w", ErrNotFound)
	}
	delete(r.contacts, id)
	return c.User.UserID, nil
}

// SetImage stores the profile image of userID
func (r *Repository) SetImage(userID int64, base64 string) (models.UserImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return models.UserImage{}, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	r.images[userID] = base64
	return models.UserImage{UserID: userID, ImageBase64: base64}, nil
}

// GetImage retrieves the profile image of userID
func (r *Repository) GetImage(userID int64) (models.UserImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	img, ok := r.images[userID]
	if !ok {
		return models.UserImage{}, fmt.Errorf("image not found: %w", ErrNotFound)
	}
	return models.UserImage{UserID: userID, ImageBase64: img}, nil
}
