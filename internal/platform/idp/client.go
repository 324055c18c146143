// Package idp talks to the identity provider's REST API for account sign-up,
// password and federated sign-in, and password-reset mail.
package idp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/metrics"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password too weak")
	ErrUserDisabled       = errors.New("user disabled")
)

// Session is the outcome of a successful sign-up or sign-in.
type Session struct {
	UID          string        `json:"uid"`
	Email        string        `json:"email"`
	IDToken      string        `json:"id_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	ExpiresIn    time.Duration `json:"-"`
	NewUser      bool          `json:"new_user,omitempty"`
}

// APIError is a provider error not mapped to a sentinel.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity provider: %s (status %d)", e.Message, e.Status)
}

type Client struct {
	http *resty.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Goog-Api-Key", apiKey)
	return &Client{http: c}
}

type tokenResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	IsNewUser    bool   `json:"isNewUser"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "/accounts:signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "/accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignInWithIdP exchanges a federated provider's ID token (for example a
// Google sign-in credential) for a session.
func (c *Client) SignInWithIdP(ctx context.Context, providerID, idToken, requestURI string) (*Session, error) {
	if requestURI == "" {
		requestURI = "http://localhost"
	}
	return c.token(ctx, "/accounts:signInWithIdp", map[string]interface{}{
		"postBody":            "id_token=" + idToken + "&providerId=" + providerID,
		"requestUri":          requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	})
}

// SendPasswordReset asks the provider to mail a reset link to email.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	start := time.Now()
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"requestType": "PASSWORD_RESET", "email": email}).
		SetError(&apiErr).
		Post("/accounts:sendOobCode")
	err = checkResponse(resp, err, &apiErr)
	metrics.ObserveUpstream("idp", start, err)
	return err
}

func (c *Client) token(ctx context.Context, path string, body interface{}) (*Session, error) {
	start := time.Now()
	var out tokenResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post(path)
	err = checkResponse(resp, err, &apiErr)
	metrics.ObserveUpstream("idp", start, err)
	if err != nil {
		return nil, err
	}

	expires, _ := strconv.Atoi(out.ExpiresIn)
	return &Session{
		UID:          out.LocalID,
		Email:        out.Email,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    time.Duration(expires) * time.Second,
		NewUser:      out.IsNewUser,
	}, nil
}

func checkResponse(resp *resty.Response, err error, apiErr *errorResponse) error {
	if err != nil {
		return fmt.Errorf("identity provider request: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	return mapError(resp.StatusCode(), apiErr.Error.Message)
}

// mapError translates provider error codes. Some codes carry a suffix, as
// in "WEAK_PASSWORD : Password should be at least 6 characters".
func mapError(status int, message string) error {
	code, _, _ := strings.Cut(message, " ")
	switch code {
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_IDP_RESPONSE":
		return ErrInvalidCredentials
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "USER_DISABLED":
		return ErrUserDisabled
	}
	if message == "" {
		message = "unexpected response"
	}
	return &APIError{Status: status, Message: message}
}
