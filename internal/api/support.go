package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"campusdate/internal/models"
)

// GetPreferenceByUser fetches the discovery filter of userID
func (c *Client) GetPreferenceByUser(ctx context.Context, userID int64) (*models.Preference, error) {
	return getOne[models.Preference](ctx, c, "get preference", idPath("/preferences/user/%d", userID), nil)
}

// CreatePreference stores a new discovery filter
func (c *Client) CreatePreference(ctx context.Context, pref models.Preference) (*models.Preference, error) {
	return writeOne[models.Preference](ctx, c, "create preference", http.MethodPost, "/preferences", pref)
}

// UpdatePreference replaces a discovery filter wholesale
func (c *Client) UpdatePreference(ctx context.Context, pref models.Preference) (*models.Preference, error) {
	if pref.PreferenceID <= 0 {
		return nil, fmt.Errorf("update preference: preference id is required")
	}
	return writeOne[models.Preference](ctx, c, "update preference", http.MethodPut, idPath("/preferences/%d", pref.PreferenceID), pref)
}

// DeletePreference removes a discovery filter
func (c *Client) DeletePreference(ctx context.Context, preferenceID int64) error {
	return c.writeNoContent(ctx, "delete preference", http.MethodDelete, idPath("/preferences/%d", preferenceID), nil)
}

// GetAllTickets lists every ticket
func (c *Client) GetAllTickets(ctx context.Context) ([]models.Ticket, error) {
	return getList[models.Ticket](ctx, c, "get tickets", "/tickets", nil)
}

// GetTicket fetches a single ticket
func (c *Client) GetTicket(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	return getOne[models.Ticket](ctx, c, "get ticket", idPath("/tickets/%d", ticketID), nil)
}

// GetTicketsByUser lists the tickets filed by userID
func (c *Client) GetTicketsByUser(ctx context.Context, userID int64) ([]models.Ticket, error) {
	return getList[models.Ticket](ctx, c, "get user tickets", idPath("/tickets/user/%d", userID), nil)
}

// CreateTicket files a new ticket
func (c *Client) CreateTicket(ctx context.Context, req models.TicketRequest) (*models.Ticket, error) {
	return writeOne[models.Ticket](ctx, c, "create ticket", http.MethodPost, "/tickets", req)
}

// PatchTicket applies a partial update
func (c *Client) PatchTicket(ctx context.Context, ticketID int64, patch models.TicketPatch) (*models.Ticket, error) {
	return writeOne[models.Ticket](ctx, c, "patch ticket", http.MethodPatch, idPath("/tickets/%d", ticketID), patch)
}

// DeleteTicket removes a ticket
func (c *Client) DeleteTicket(ctx context.Context, ticketID int64) error {
	return c.writeNoContent(ctx, "delete ticket", http.MethodDelete, idPath("/tickets/%d", ticketID), nil)
}

// SendEmergencyAlert raises an alert for the user
func (c *Client) SendEmergencyAlert(ctx context.Context, req models.EmergencyAlertRequest) (*models.EmergencyAlert, error) {
	return writeOne[models.EmergencyAlert](ctx, c, "send emergency alert", http.MethodPost, "/emergency/alert", req)
}

// GetEmergencyHistory lists past alerts of userID
func (c *Client) GetEmergencyHistory(ctx context.Context, userID int64) ([]models.EmergencyAlert, error) {
	q := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	return getList[models.EmergencyAlert](ctx, c, "get emergency history", "/emergency/history", q)
}

// GetContactsByUser lists the emergency contacts of userID
func (c *Client) GetContactsByUser(ctx context.Context, userID int64) ([]models.EmergencyContact, error) {
	return getList[models.EmergencyContact](ctx, c, "get contacts", idPath("/emergency/contacts/user/%d", userID), nil)
}

// CreateContact stores a new emergency contact
func (c *Client) CreateContact(ctx context.Context, contact models.EmergencyContact) (*models.EmergencyContact, error) {
	return writeOne[models.EmergencyContact](ctx, c, "create contact", http.MethodPost, "/emergency/contacts", contact)
}

// UpdateContact replaces an emergency contact
func (c *Client) UpdateContact(ctx context.Context, contact models.EmergencyContact) (*models.EmergencyContact, error) {
	if contact.ContactID <= 0 {
		return nil, fmt.Errorf("update contact: contact id is required")
	}
	return writeOne[models.EmergencyContact](ctx, c, "update contact", http.MethodPut, idPath("/emergency/contacts/%d", contact.ContactID), contact)
}

// DeleteContact removes an emergency contact
func (c *Client) DeleteContact(ctx context.Context, contactID int64) error {
	return c.writeNoContent(ctx, "delete contact", http.MethodDelete, idPath("/emergency/contacts/%d", contactID), nil)
}

// GetImageByUser fetches the profile image of userID
func (c *Client) GetImageByUser(ctx context.Context, userID int64) (*models.UserImage, error) {
	return getOne[models.UserImage](ctx, c, "get image", idPath("/image/user/%d", userID), nil)
}

// UploadImage replaces the profile image of userID with a JPEG upload
func (c *Client) UploadImage(ctx context.Context, userID int64, filename string, data []byte) (*models.UserImage, error) {
	const op = "upload image"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("userId", strconv.FormatInt(userID, 10)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	part, err := w.CreateFormFile("imageFile", filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	raw, err := c.send(ctx, op, http.MethodPut, "/image/edit", nil, &buf, w.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return decodeOne[models.UserImage](op, raw)
}
