package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPayload is returned when a decoded payload fails validation
var ErrInvalidPayload = errors.New("invalid payload")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(format, args...))
}

// UserRef is the nested owner reference used by several request bodies
type UserRef struct {
	UserID int64 `json:"userId"`
}

// User represents a user profile as returned by the API
type User struct {
	UserID           int64    `json:"userId"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	Email            string   `json:"email,omitempty"`
	Username         string   `json:"username,omitempty"`
	Age              int      `json:"age,omitempty"`
	Bio              string   `json:"bio,omitempty"`
	Institution      string   `json:"institution,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	RelationshipType string   `json:"relationshipType,omitempty"`
	ImageBase64      string   `json:"imageBase64,omitempty"`
}

func (u User) Validate() error {
	if u.UserID <= 0 {
		return invalid("user id must be positive, got %d", u.UserID)
	}
	return nil
}

// FullName joins first and last name
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Snapshot copies the profile fields kept in the local session
func (u User) Snapshot() UserSnapshot {
	s := UserSnapshot{
		UserID:           u.UserID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Username:         u.Username,
		Age:              u.Age,
		Bio:              u.Bio,
		Institution:      u.Institution,
		Gender:           u.Gender,
		Interests:        u.Interests,
		RelationshipType: u.RelationshipType,
	}
	if u.ImageBase64 != "" {
		s.Image = &Image{Base64String: u.ImageBase64}
	}
	return s
}

// UserUpdate carries a partial profile update. Nil fields are left untouched.
type UserUpdate struct {
	FirstName        *string  `json:"firstName,omitempty"`
	LastName         *string  `json:"lastName,omitempty"`
	Email            *string  `json:"email,omitempty"`
	Username         *string  `json:"username,omitempty"`
	Age              *int     `json:"age,omitempty"`
	Bio              *string  `json:"bio,omitempty"`
	Institution      *string  `json:"institution,omitempty"`
	Gender           *string  `json:"gender,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	RelationshipType *string  `json:"relationshipType,omitempty"`
}

// Image wraps an encoded profile image in the session snapshot
type Image struct {
	Base64String string `json:"base64String"`
}

// UserSnapshot is the denormalized profile copy captured at login
type UserSnapshot struct {
	UserID           int64    `json:"userId"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	Email            string   `json:"email"`
	Username         string   `json:"username"`
	Age              int      `json:"age"`
	Bio              string   `json:"bio"`
	Institution      string   `json:"institution"`
	Gender           string   `json:"gender"`
	Interests        []string `json:"interests"`
	RelationshipType string   `json:"relationshipType"`
	Image            *Image   `json:"image,omitempty"`
}

// Session is the locally persisted proof of authentication
type Session struct {
	Token string       `json:"token"`
	User  UserSnapshot `json:"user"`
}

func (s Session) Validate() error {
	if s.Token == "" {
		return invalid("session token is empty")
	}
	if s.User.UserID <= 0 {
		return invalid("session user id must be positive, got %d", s.User.UserID)
	}
	return nil
}

// LoginRequest carries credentials. Either Email or Username identifies the user.
type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by a successful login
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (r LoginResponse) Validate() error {
	if r.Token == "" {
		return invalid("login response has no token")
	}
	if r.User == nil {
		return invalid("login response has no user")
	}
	return r.User.Validate()
}

// Session builds the local session from a login response
func (r LoginResponse) Session() Session {
	return Session{Token: r.Token, User: r.User.Snapshot()}
}

// SignupRequest carries the fields of a new account
type SignupRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Age       int    `json:"age"`
}

// Like is a directed edge from liker to liked
type Like struct {
	LikeID    int64     `json:"likeId"`
	LikerID   int64     `json:"likerId"`
	LikedID   int64     `json:"likedId"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (l Like) Validate() error {
	if l.LikerID <= 0 || l.LikedID <= 0 {
		return invalid("like %d has no liker or liked id", l.LikeID)
	}
	return nil
}

// Match is a confirmed mutual like between two users
type Match struct {
	MatchID        int64     `json:"matchId"`
	User1ID        int64     `json:"user1Id"`
	User2ID        int64     `json:"user2Id"`
	User1FirstName string    `json:"user1FirstName,omitempty"`
	User1LastName  string    `json:"user1LastName,omitempty"`
	User2FirstName string    `json:"user2FirstName,omitempty"`
	User2LastName  string    `json:"user2LastName,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

func (m Match) Validate() error {
	if m.MatchID <= 0 {
		return invalid("match id must be positive, got %d", m.MatchID)
	}
	if m.User1ID <= 0 || m.User2ID <= 0 {
		return invalid("match %d is missing a participant", m.MatchID)
	}
	return nil
}

// OtherUserID returns the participant that is not userID
func (m Match) OtherUserID(userID int64) int64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// Message is a single chat message
type Message struct {
	MessageID int64     `json:"messageId"`
	ChatID    int64     `json:"chatId,omitempty"`
	SenderID  int64     `json:"senderId"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
}

func (m Message) Validate() error {
	if m.MessageID <= 0 {
		return invalid("message id must be positive, got %d", m.MessageID)
	}
	if m.SenderID <= 0 {
		return invalid("message %d has no sender", m.MessageID)
	}
	return nil
}

// Chat belongs to a match and carries its messages in server order
type Chat struct {
	ChatID   int64     `json:"chatId"`
	MatchID  int64     `json:"matchId"`
	Messages []Message `json:"messages"`
}

func (c Chat) Validate() error {
	if c.ChatID <= 0 {
		return invalid("chat id must be positive, got %d", c.ChatID)
	}
	if c.MatchID <= 0 {
		return invalid("chat %d has no match", c.ChatID)
	}
	for _, m := range c.Messages {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LastMessage returns the newest message, if any
func (c Chat) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// SendMessageRequest is the body of a new message
type SendMessageRequest struct {
	ChatID   int64  `json:"chatId"`
	SenderID int64  `json:"senderId"`
	Content  string `json:"content"`
}

// Preference holds a user's discovery filter
type Preference struct {
	PreferenceID       int64    `json:"preferenceId,omitempty"`
	User               UserRef  `json:"user"`
	PreferredInterests []string `json:"preferredInterests"`
	RelationshipType   string   `json:"relationshipType"`
	MinAge             int      `json:"minAge"`
	MaxAge             int      `json:"maxAge"`
	PreferredGender    string   `json:"preferredGender"`
	PreferredCourses   []string `json:"preferredCourses"`
	MaxDistance        int      `json:"maxDistance"`
	SmokingPreference  bool     `json:"smokingPreference"`
	DrinkingPreference bool     `json:"drinkingPreference"`
}

func (p Preference) Validate() error {
	if p.User.UserID <= 0 {
		return invalid("preference %d has no user", p.PreferenceID)
	}
	if p.MinAge < 0 || p.MaxAge < 0 {
		return invalid("preference ages must not be negative")
	}
	if p.MaxAge != 0 && p.MinAge > p.MaxAge {
		return invalid("preference min age %d exceeds max age %d", p.MinAge, p.MaxAge)
	}
	return nil
}

// Ticket statuses reported by the API
const (
	TicketStatusPending  = "PENDING"
	TicketStatusOpen     = "OPEN"
	TicketStatusResolved = "RESOLVED"
)

// Ticket issue types offered by the report screen
const (
	IssueBugReport  = "BUG_REPORT"
	IssueUserReport = "USER_REPORT"
	IssueFeedback   = "FEEDBACK"
	IssueOther      = "OTHER"
)

// Ticket is a support or moderation report
type Ticket struct {
	TicketID    int64      `json:"ticketId"`
	UserID      int64      `json:"userId"`
	IssueType   string     `json:"issueType"`
	Description string     `json:"description"`
	Status      *string    `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy  *int64     `json:"resolvedBy,omitempty"`
}

func (t Ticket) Validate() error {
	if t.TicketID <= 0 {
		return invalid("ticket id must be positive, got %d", t.TicketID)
	}
	if t.IssueType == "" {
		return invalid("ticket %d has no issue type", t.TicketID)
	}
	return nil
}

// StatusOrPending returns the status, defaulting to PENDING when unset
func (t Ticket) StatusOrPending() string {
	if t.Status == nil || *t.Status == "" {
		return TicketStatusPending
	}
	return *t.Status
}

// TicketRequest is the body of a new ticket
type TicketRequest struct {
	User        UserRef `json:"user"`
	IssueType   string  `json:"issueType"`
	Description string  `json:"description"`
}

// TicketPatch is a partial ticket update
type TicketPatch struct {
	IssueType   *string `json:"issueType,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	ResolvedBy  *int64  `json:"resolvedBy,omitempty"`
}

// GeoLocation is a point attached to an emergency alert
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EmergencyAlertRequest is the body of an emergency alert
type EmergencyAlertRequest struct {
	UserID   int64        `json:"userId"`
	Message  string       `json:"message,omitempty"`
	Location *GeoLocation `json:"location,omitempty"`
}

// EmergencyAlert is a sent alert as recorded by the API
type EmergencyAlert struct {
	AlertID   int64        `json:"alertId"`
	UserID    int64        `json:"userId"`
	Message   string       `json:"message,omitempty"`
	Location  *GeoLocation `json:"location,omitempty"`
	Status    string       `json:"status,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (a EmergencyAlert) Validate() error {
	if a.UserID <= 0 {
		return invalid("emergency alert %d has no user", a.AlertID)
	}
	return nil
}

// EmergencyContact is a phone contact reachable in an emergency
type EmergencyContact struct {
	ContactID   int64   `json:"contactId,omitempty"`
	User        UserRef `json:"user"`
	Name        string  `json:"name"`
	PhoneNumber string  `json:"phoneNumber"`
}

func (c EmergencyContact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("contact %d has no name", c.ContactID)
	}
	if strings.TrimSpace(c.PhoneNumber) == "" {
		return invalid("contact %d has no phone number", c.ContactID)
	}
	return nil
}

// UserImage is a user's profile image
type UserImage struct {
	UserID      int64  `json:"userId"`
	ImageBase64 string `json:"imageBase64"`
}

func (i UserImage) Validate() error {
	if i.UserID <= 0 {
		return invalid("image has no user")
	}
	return nil
}

// Realtime event types pushed over the websocket
const (
	EventMessageCreated  = "message_created"
	EventMatchCreated    = "match_created"
	EventLikeReceived    = "like_received"
	EventTicketUpdated   = "ticket_updated"
	EventContactsChanged = "contacts_changed"
)

// Event is a realtime nudge telling a client that a resource changed
type Event struct {
	Type      string `json:"type"`
	UserID    int64  `json:"userId,omitempty"`
	ChatID    int64  `json:"chatId,omitempty"`
	MatchID   int64  `json:"matchId,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}
