package api

import (
	"context"
	"fmt"
	"net/http"
)

// SessionService forwards login and logout to the backend. Token lifetime is
// entirely the backend's business.
type SessionService struct {
	c *Client
}

type loginRequest struct {
	ID          int    `json:"id"`
	Password    string `json:"password"`
	IsProfessor int    `json:"is_professor"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (s *SessionService) Login(ctx context.Context, id int, password string, professor bool) (string, error) {
	req := loginRequest{ID: id, Password: password}
	if professor {
		req.IsProfessor = 1
	}
	var out loginResponse
	if err := s.c.do(ctx, http.MethodPost, s.c.baseURL+"/login", req, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("login: response has no token")
	}
	return out.Token, nil
}

// Logout asks the backend to invalidate the current token.
func (s *SessionService) Logout(ctx context.Context) error {
	return s.c.do(ctx, http.MethodPost, s.c.baseURL+"/logout", nil, nil)
}
