package api

import (
	"context"
	"net/http"

	"github.com/octabyte/taskdesk/models"
)

func (c *Client) GetProfile(ctx context.Context) (*models.User, error) {
	var out models.User
	err := c.do(ctx, call{operation: "profile_get", method: http.MethodGet, path: PathProfile, result: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	var out models.User
	err := c.do(ctx, call{
		operation: "profile_update",
		method:    http.MethodPatch,
		path:      PathProfile,
		body:      update,
		result:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, change models.PasswordChange) (*models.MessageResponse, error) {
	var out models.MessageResponse
	err := c.do(ctx, call{
		operation: "password_change",
		method:    http.MethodPost,
		path:      PathChangePassword,
		body:      change,
		result:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
