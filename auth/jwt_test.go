package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/programme-lv/classroom/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = []byte("test")

func TestGenerateAndValidate(t *testing.T) {
	token, err := auth.GenerateJWT(42, "S-001", "Anna", "anna@school.lv", key)
	require.NoError(t, err)

	claims, err := auth.ValidateJWT(token, key)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.StudentPK())
	assert.Equal(t, "S-001", claims.StudentID)

	_, err = auth.ValidateJWT(token, []byte("other"))
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	var seen *auth.StudentClaims
	h := auth.GetJwtAuthMiddleware(key)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.StudentFromContext(r.Context())
	}))

	// no token passes through anonymously
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, seen)

	token, err := auth.GenerateJWT(7, "S-007", "Bond", "", key)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.NotNil(t, seen)
	assert.Equal(t, "S-007", seen.StudentID)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":false`)
}

func TestMiddlewareReadsCookie(t *testing.T) {
	var seen *auth.StudentClaims
	h := auth.GetJwtAuthMiddleware(key)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.StudentFromContext(r.Context())
	}))

	token, err := auth.GenerateJWT(9, "S-009", "Cookie", "", key)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.AuthCookieName, Value: token})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.NotNil(t, seen)
	assert.Equal(t, int64(9), seen.StudentPK())
}
