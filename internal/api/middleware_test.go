package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gochat/internal/auth"
	"gochat/internal/config"
	"gochat/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAPI() *API {
	return New(
		&config.Config{JWTSecret: "test-secret"},
		nil, nil, nil, nil, nil,
		zap.NewNop().Sugar(),
	)
}

// echoUserID is a terminal handler that writes back whatever user id the
// middleware chain resolved.
func echoUserID(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(userIDFrom(r.Context())))
}

func TestWithUserValidToken(t *testing.T) {
	a := newTestAPI()
	token, err := auth.SignToken("test-secret", "u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	a.withUser(http.HandlerFunc(echoUserID)).ServeHTTP(rec, req)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestWithUserInvalidTokenPassesThrough(t *testing.T) {
	a := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()

	a.withUser(http.HandlerFunc(echoUserID)).ServeHTTP(rec, req)

	// A bad token means no identity, not a rejection.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestWithUserNoHeader(t *testing.T) {
	a := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	a.withUser(http.HandlerFunc(echoUserID)).ServeHTTP(rec, req)
	assert.Empty(t, rec.Body.String())
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	a := newTestAPI()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	called := false
	a.requireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
}

func TestRequireAuthAdmitsAuthenticated(t *testing.T) {
	a := newTestAPI()
	token, err := auth.SignToken("test-secret", "u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	a.withUser(a.requireAuth(http.HandlerFunc(echoUserID))).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestWriteStoreErrorMapping(t *testing.T) {
	a := newTestAPI()

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", db.ErrNotFound, http.StatusNotFound},
		{"already exists", db.ErrAlreadyExists, http.StatusConflict},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.writeStoreError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	// Internal failures must not leak their message to the client.
	rec := httptest.NewRecorder()
	a.writeStoreError(rec, errors.New("pg: secret detail"))
	assert.NotContains(t, rec.Body.String(), "secret detail")
}
