package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{"token": "jwt-token"}`)
	c := newTestClient(t, srv.URL, "")

	token, err := c.Session().Login(context.Background(), 1094, "secret", true)
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)

	got := srv.Calls()[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/login", got.Path)
	assert.Equal(t, float64(1094), got.Body["id"])
	assert.Equal(t, "secret", got.Body["password"])
	assert.Equal(t, float64(1), got.Body["is_professor"])
}

func TestLoginStudent(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{"token": "t"}`)
	c := newTestClient(t, srv.URL, "")

	_, err := c.Session().Login(context.Background(), 7, "pw", false)
	require.NoError(t, err)
	assert.Equal(t, float64(0), srv.Calls()[0].Body["is_professor"])
}

func TestLoginRejected(t *testing.T) {
	srv := newBackend(t, http.StatusUnauthorized, `{"detail": "Invalid credentials"}`)
	c := newTestClient(t, srv.URL, "")

	_, err := c.Session().Login(context.Background(), 7, "bad", false)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Invalid credentials", se.Detail())
}

func TestLoginWithoutToken(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{}`)
	c := newTestClient(t, srv.URL, "")

	_, err := c.Session().Login(context.Background(), 7, "pw", false)
	require.Error(t, err)
}

func TestLogout(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{"message": "Logged out successfully"}`)
	c := newTestClient(t, srv.URL, "")

	require.NoError(t, c.Session().Logout(context.Background()))
	got := srv.Calls()[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/logout", got.Path)
	assert.Equal(t, "Bearer abc123", got.Auth)
}
