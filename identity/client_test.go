package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/programme-lv/classroom/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	confirmedID = "8d4c6f0e-1b1a-4b57-9a55-2f2f6f6b8e01"
	pendingID   = "0f7e2a4c-55d2-4d0b-8f2c-7a3b1c9d6e02"
	missingID   = "6b1f7c3d-2e4a-4f59-b0c8-1d2e3f4a5b03"
)

func newGoTrue(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/v1/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		switch r.PathValue("id") {
		case confirmedID:
			w.Write([]byte(`{"id":"` + confirmedID + `","email":"a@b.lv","email_confirmed_at":"2024-09-01T10:00:00Z"}`))
		case pendingID:
			w.Write([]byte(`{"id":"` + pendingID + `","email":"p@b.lv","email_confirmed_at":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"msg":"User not found"}`))
		}
	})
	mux.HandleFunc("POST /auth/v1/admin/generate_link", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "magiclink", body["type"])
		assert.Equal(t, "https://app.test/teachers/signup/", body["redirect_to"])
		email, _ := body["email"].(string)
		w.Write([]byte(`{"action_link":"https://auth.test/verify?email=` + email + `","email":"` + email + `"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetUserByID(t *testing.T) {
	srv := newGoTrue(t)
	c := identity.NewClient(srv.URL+"/", "secret")

	u, err := c.GetUserByID(context.Background(), confirmedID)
	require.NoError(t, err)
	assert.Equal(t, confirmedID, u.ID)
	assert.Equal(t, "a@b.lv", u.Email)
	assert.True(t, u.Confirmed())

	u, err = c.GetUserByID(context.Background(), pendingID)
	require.NoError(t, err)
	assert.False(t, u.Confirmed())

	_, err = c.GetUserByID(context.Background(), missingID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGetUserByIDRejectsMalformedID(t *testing.T) {
	srv := newGoTrue(t)
	c := identity.NewClient(srv.URL, "secret")

	_, err := c.GetUserByID(context.Background(), "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid user id")
}

func TestGenerateSignupLink(t *testing.T) {
	srv := newGoTrue(t)
	c := identity.NewClient(srv.URL, "secret")

	link, err := c.GenerateSignupLink(context.Background(), "p@b.lv", "https://app.test/teachers/signup/")
	require.NoError(t, err)
	assert.Equal(t, "https://auth.test/verify?email=p@b.lv", link)
}
