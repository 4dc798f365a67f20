package api

import (
	"context"
	"net/http"

	"campusdate/internal/models"
)

// Login exchanges credentials for a token and profile
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	return writeOne[models.LoginResponse](ctx, c, "login", http.MethodPost, "/users/login", req)
}

// Signup creates an account. The created user is returned when the API echoes it.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	const op = "signup"
	raw, err := c.doJSON(ctx, op, http.MethodPost, "/users/signup", nil, req)
	if err != nil {
		return nil, err
	}
	if isEmptyBody(raw) {
		return nil, nil
	}
	return decodeOne[models.User](op, raw)
}

// GetUser fetches a single profile
func (c *Client) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return getOne[models.User](ctx, c, "get user", idPath("/users/%d", userID), nil)
}

// GetUsers fetches every discoverable profile
func (c *Client) GetUsers(ctx context.Context) ([]models.User, error) {
	return getList[models.User](ctx, c, "get users", "/users", nil)
}

// UpdateUser applies a partial profile update and returns the stored profile
func (c *Client) UpdateUser(ctx context.Context, userID int64, update models.UserUpdate) (*models.User, error) {
	return writeOne[models.User](ctx, c, "update user", http.MethodPatch, idPath("/users/%d", userID), update)
}

// DeleteUser removes an account
func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	return c.writeNoContent(ctx, "delete user", http.MethodDelete, idPath("/users/%d", userID), nil)
}
