// Package testutil provides shared helpers for the catalog HTTP tests:
// signed access tokens, an authenticated client over a gin engine
// and decoding of the response envelope.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// TokenSecret signs the tokens produced by SignToken
const TokenSecret = "integration-secret-of-32-characters"

func init() {
	gin.SetMode(gin.TestMode)
}

// SignToken returns an HS256 access token for subject with role, valid for ttl
func SignToken(t *testing.T, subject, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"rol": role,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TokenSecret))
	require.NoError(t, err)
	return token
}

// Client serves requests in process against an engine.
// A non-empty Token is sent as a Bearer header unless the request already carries one.
type Client struct {
	Engine http.Handler
	Token  string
}

// Do serves req and returns the recorded response
func (c *Client) Do(req *http.Request) *httptest.ResponseRecorder {
	if c.Token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	w := httptest.NewRecorder()
	c.Engine.ServeHTTP(w, req)
	return w
}

// Get serves a GET for target with extra headers
func (c *Client) Get(target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(req)
}

// JSON serves a request with a raw JSON body
func (c *Client) JSON(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// Anonymous returns a copy of c that sends no credentials
func (c *Client) Anonymous() *Client {
	return &Client{Engine: c.Engine}
}
