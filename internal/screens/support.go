package screens

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"campusdate/internal/models"
)

// ContactsScreen manages emergency contacts
type ContactsScreen struct {
	polled[[]models.EmergencyContact]
	deps Deps

	mu       sync.RWMutex
	userID   int64
	contacts []models.EmergencyContact
}

// NewContactsScreen creates an emergency contacts screen
func NewContactsScreen(deps Deps) *ContactsScreen {
	return &ContactsScreen{deps: deps}
}

// Mount reads the session and starts polling
func (s *ContactsScreen) Mount(ctx context.Context) error {
	sess, err := s.deps.requireSession(ctx)
	if err != nil {
		return err
	}
	userID := sess.User.UserID

	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	fetch := func(ctx context.Context) ([]models.EmergencyContact, error) {
		return s.deps.API.GetContactsByUser(ctx, userID)
	}
	s.start(ctx, s.deps, "contacts", s.deps.intervals().Contacts, fetch, s.reconcile, models.EventContactsChanged)
	return nil
}

func (s *ContactsScreen) reconcile(contacts []models.EmergencyContact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = contacts
}

// Contacts returns the rendered contacts
func (s *ContactsScreen) Contacts() []models.EmergencyContact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.EmergencyContact(nil), s.contacts...)
}

// upsert merges c into the list by contact id. Caller holds mu.
func (s *ContactsScreen) upsert(c models.EmergencyContact) {
	for i := range s.contacts {
		if s.contacts[i].ContactID == c.ContactID {
			s.contacts[i] = c
			return
		}
	}
	s.contacts = append(s.contacts, c)
}

func (s *ContactsScreen) owner() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == 0 {
		return 0, ErrNotMounted
	}
	return s.userID, nil
}

// Add creates a contact
func (s *ContactsScreen) Add(ctx context.Context, name, phone string) (*models.EmergencyContact, error) {
	userID, err := s.owner()
	if err != nil {
		return nil, err
	}
	c := models.EmergencyContact{
		User:        models.UserRef{UserID: userID},
		Name:        strings.TrimSpace(name),
		PhoneNumber: strings.TrimSpace(phone),
	}
	if err := c.Validate(); err != nil {
		s.deps.Alerts.Alert("Error", "Please enter a name and phone number.")
		return nil, err
	}

	created, err := s.deps.API.CreateContact(ctx, c)
	if err != nil {
		s.deps.alertError("Error", err)
		return nil, err
	}

	s.mu.Lock()
	s.upsert(*created)
	s.mu.Unlock()
	return created, nil
}

// Update replaces the name and number of a contact
func (s *ContactsScreen) Update(ctx context.Context, c models.EmergencyContact) (*models.EmergencyContact, error) {
	userID, err := s.owner()
	if err != nil {
		return nil, err
	}
	c.User = models.UserRef{UserID: userID}
	if err := c.Validate(); err != nil {
		s.deps.Alerts.Alert("Error", "Please enter a name and phone number.")
		return nil, err
	}

	updated, err := s.deps.API.UpdateContact(ctx, c)
	if err != nil {
		s.deps.alertError("Error", err)
		return nil, err
	}

	s.mu.Lock()
	s.upsert(*updated)
	s.mu.Unlock()
	return updated, nil
}

// Delete removes a contact
func (s *ContactsScreen) Delete(ctx context.Context, contactID int64) error {
	if err := s.deps.API.DeleteContact(ctx, contactID); err != nil {
		s.deps.Alerts.Alert("Error", "Failed to delete contact. Please try again.")
		return err
	}

	s.mu.Lock()
	for i, c := range s.contacts {
		if c.ContactID == contactID {
			s.contacts = append(s.contacts[:i:i], s.contacts[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.deps.Alerts.Alert("Contacts", "Contact deleted successfully!")
	return nil
}

// TicketsScreen files and lists support reports
type TicketsScreen struct {
	polled[[]models.Ticket]
	deps Deps

	mu      sync.RWMutex
	userID  int64
	tickets []models.Ticket
}

// NewTicketsScreen creates a report-issue screen
func NewTicketsScreen(deps Deps) *TicketsScreen {
	return &TicketsScreen{deps: deps}
}

// Mount reads the session and starts polling
func (s *TicketsScreen) Mount(ctx context.Context) error {
	sess, err := s.deps.requireSession(ctx)
	if err != nil {
		return err
	}
	userID := sess.User.UserID

	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	fetch := func(ctx context.Context) ([]models.Ticket, error) {
		return s.deps.API.GetTicketsByUser(ctx, userID)
	}
	s.start(ctx, s.deps, "tickets", s.deps.intervals().Tickets, fetch, s.reconcile, models.EventTicketUpdated)
	return nil
}

func (s *TicketsScreen) reconcile(tickets []models.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = tickets
}

// Tickets returns the rendered tickets
func (s *TicketsScreen) Tickets() []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Ticket(nil), s.tickets...)
}

// Create files a ticket. An empty issue type defaults to BUG_REPORT.
func (s *TicketsScreen) Create(ctx context.Context, issueType, description string) (*models.Ticket, error) {
	s.mu.RLock()
	userID := s.userID
	s.mu.RUnlock()
	if userID == 0 {
		return nil, ErrNotMounted
	}

	if issueType == "" {
		issueType = models.IssueBugReport
	}
	description = strings.TrimSpace(description)
	if description == "" {
		s.deps.Alerts.Alert("Error", "Please fill all fields.")
		return nil, fmt.Errorf("create ticket: %w", models.ErrInvalidPayload)
	}

	ticket, err := s.deps.API.CreateTicket(ctx, models.TicketRequest{
		User:        models.UserRef{UserID: userID},
		IssueType:   issueType,
		Description: description,
	})
	if err != nil {
		s.deps.Alerts.Alert("Error", "Failed to create ticket. Please try again.")
		return nil, err
	}

	s.mu.Lock()
	s.upsert(*ticket)
	s.mu.Unlock()

	s.deps.Alerts.Alert("Report", "Your ticket has been created successfully.")
	return ticket, nil
}

// Ticket fetches one ticket with its current status
func (s *TicketsScreen) Ticket(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	t, err := s.deps.API.GetTicket(ctx, ticketID)
	if err != nil {
		s.deps.alertError("Error", err)
		return nil, err
	}
	s.mu.Lock()
	s.upsert(*t)
	s.mu.Unlock()
	return t, nil
}

// All lists every ticket, not only the signed-in user's
func (s *TicketsScreen) All(ctx context.Context) ([]models.Ticket, error) {
	return s.deps.API.GetAllTickets(ctx)
}

// Edit replaces the description of a ticket
func (s *TicketsScreen) Edit(ctx context.Context, ticketID int64, description string) (*models.Ticket, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		s.deps.Alerts.Alert("Error", "Please fill all fields.")
		return nil, fmt.Errorf("edit ticket: %w", models.ErrInvalidPayload)
	}

	t, err := s.deps.API.PatchTicket(ctx, ticketID, models.TicketPatch{Description: &description})
	if err != nil {
		s.deps.alertError("Error", err)
		return nil, err
	}
	s.mu.Lock()
	s.upsert(*t)
	s.mu.Unlock()

	s.deps.Alerts.Alert("Report", "Ticket updated.")
	return t, nil
}

// Delete withdraws a ticket
func (s *TicketsScreen) Delete(ctx context.Context, ticketID int64) error {
	if err := s.deps.API.DeleteTicket(ctx, ticketID); err != nil {
		s.deps.alertError("Error", err)
		return err
	}

	s.mu.Lock()
	for i, t := range s.tickets {
		if t.TicketID == ticketID {
			s.tickets = append(s.tickets[:i:i], s.tickets[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.deps.Alerts.Alert("Report", "Ticket deleted.")
	return nil
}

// upsert replaces a ticket by id or appends it. Caller holds mu.
func (s *TicketsScreen) upsert(t models.Ticket) {
	for i := range s.tickets {
		if s.tickets[i].TicketID == t.TicketID {
			s.tickets[i] = t
			return
		}
	}
	s.tickets = append(s.tickets, t)
}

// EmergencyScreen sends alerts and shows their history
type EmergencyScreen struct {
	polled[[]models.EmergencyAlert]
	deps Deps

	mu      sync.RWMutex
	userID  int64
	history []models.EmergencyAlert
}

// NewEmergencyScreen creates an emergency screen
func NewEmergencyScreen(deps Deps) *EmergencyScreen {
	return &EmergencyScreen{deps: deps}
}

// Mount reads the session and starts polling the alert history
func (s *EmergencyScreen) Mount(ctx context.Context) error {
	sess, err := s.deps.requireSession(ctx)
	if err != nil {
		return err
	}
	userID := sess.User.UserID

	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	fetch := func(ctx context.Context) ([]models.EmergencyAlert, error) {
		return s.deps.API.GetEmergencyHistory(ctx, userID)
	}
	s.start(ctx, s.deps, "emergency", s.deps.intervals().Emergency, fetch, s.reconcile)
	return nil
}

func (s *EmergencyScreen) reconcile(history []models.EmergencyAlert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = history
}

// History returns the rendered alerts, newest first
func (s *EmergencyScreen) History() []models.EmergencyAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.EmergencyAlert(nil), s.history...)
}

// SendAlert raises an emergency alert. location may be nil.
func (s *EmergencyScreen) SendAlert(ctx context.Context, message string, location *models.GeoLocation) (*models.EmergencyAlert, error) {
	s.mu.RLock()
	userID := s.userID
	s.mu.RUnlock()
	if userID == 0 {
		return nil, ErrNotMounted
	}
	if strings.TrimSpace(message) == "" {
		message = "Emergency alert triggered from mobile app"
	}

	alert, err := s.deps.API.SendEmergencyAlert(ctx, models.EmergencyAlertRequest{
		UserID:   userID,
		Message:  message,
		Location: location,
	})
	if err != nil {
		s.deps.alertError("Error", err)
		return nil, err
	}

	s.mu.Lock()
	s.history = append([]models.EmergencyAlert{*alert}, s.history...)
	s.mu.Unlock()

	s.deps.Alerts.Alert("Sent", "Your emergency alert has been sent.")
	s.kick()
	return alert, nil
}
