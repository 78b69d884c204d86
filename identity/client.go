// Package identity talks to the Supabase GoTrue admin API. A Client is
// built once at startup and handed to whoever needs it.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

type User struct {
	ID               string
	Email            string
	EmailConfirmedAt *time.Time
}

func (u User) Confirmed() bool {
	return u.EmailConfirmedAt != nil && !u.EmailConfirmedAt.IsZero()
}

type Client struct {
	admin gotrue.Client
}

// NewClient expects the project URL (https://<ref>.supabase.co) and the
// service role key, which authorizes admin calls.
func NewClient(baseURL string, serviceKey string) *Client {
	authURL := strings.TrimRight(baseURL, "/") + "/auth/v1"
	admin := gotrue.New("", serviceKey).
		WithCustomGoTrueURL(authURL).
		WithToken(serviceKey)
	return &Client{admin: admin}
}

// GetUserByID fetches a user through the admin endpoint.
func (c *Client) GetUserByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return User{}, fmt.Errorf("invalid user id %q: %w", id, err)
	}
	resp, err := c.admin.AdminGetUser(types.AdminGetUserRequest{UserID: uid})
	if err != nil {
		return User{}, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return User{
		ID:               resp.ID.String(),
		Email:            resp.Email,
		EmailConfirmedAt: resp.EmailConfirmedAt,
	}, nil
}

// GenerateSignupLink returns a link that confirms the email of a user
// who has not confirmed it yet and then redirects to redirectTo.
//
// The client only builds signup links together with a password, which is
// never known here. GoTrue confirms the address of an unconfirmed user
// when a magic link is verified, so that link type serves instead.
func (c *Client) GenerateSignupLink(ctx context.Context, email string, redirectTo string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err := c.admin.AdminGenerateLink(types.AdminGenerateLinkRequest{
		Type:       types.LinkTypeMagicLink,
		Email:      email,
		RedirectTo: redirectTo,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signup link: %w", err)
	}
	return resp.ActionLink, nil
}
