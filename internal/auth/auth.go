// Package auth attaches the stored backend credential to outgoing requests.
package auth

import (
	"context"
	"fmt"
	"net/http"
)

// HeaderName is the request header carrying the credential.
const HeaderName = "Authorization"

// missingToken is what a missing key renders as, so the backend sees "Bearer null"
// and rejects it. Presence is never checked here.
const missingToken = "null"

// TokenSource yields the credential at call time.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ItemGetter is the read side of the ambient key/value store.
type ItemGetter interface {
	GetItem(key string) (string, bool, error)
}

// StoreTokens reads the credential from the ambient store on every call.
type StoreTokens struct {
	Store ItemGetter
	Key   string
}

// Token returns the stored credential, or "null" when the key is absent.
func (s StoreTokens) Token(_ context.Context) (string, error) {
	v, ok, err := s.Store.GetItem(s.Key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.Key, err)
	}
	if !ok {
		return missingToken, nil
	}
	return v, nil
}

// StaticToken is a fixed credential, e.g. one passed on the command line.
type StaticToken string

// Token returns the fixed credential.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// HeaderValue formats the Authorization header value for token.
func HeaderValue(token string) string {
	return "Bearer " + token
}

// Headers builds the header set sent with every backend call:
// a single Authorization entry.
func Headers(ctx context.Context, src TokenSource) (http.Header, error) {
	token, err := src.Token(ctx)
	if err != nil {
		return nil, err
	}
	h := make(http.Header, 1)
	h.Set(HeaderName, HeaderValue(token))
	return h, nil
}

// Transport is an http.RoundTripper that adds the Authorization header to each request.
type Transport struct {
	Base   http.RoundTripper
	Source TokenSource
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	h, err := Headers(req.Context(), t.Source)
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, fmt.Errorf("build auth headers: %w", err)
	}
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	for k, vs := range h {
		r.Header[k] = vs
	}
	return t.base().RoundTrip(r)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// NewClient returns an *http.Client whose requests carry the credential from src.
// No timeout is set; callers bound requests through their context.
func NewClient(src TokenSource) *http.Client {
	return &http.Client{Transport: &Transport{Source: src}}
}
