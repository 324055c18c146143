// Package graphql is a small client for the managed GraphQL data backend.
//
// Requests are authorized either with a short-lived service token from an
// OAuth2 client-credentials flow or, when no service credentials are
// configured, with the caller's own bearer token taken from the request
// context. The client never sends a static admin secret.
package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/auth"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/metrics"
)

var (
	ErrNoCredentials   = errors.New("graphql: no credentials for request")
	ErrInvalidDocument = errors.New("graphql: invalid document")
)

// Error is one entry of the response "errors" array.
type Error struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Errors is returned when the backend answered with a non-empty errors array.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, item := range e {
		msgs = append(msgs, item.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Code returns extensions.code of the first error, or "".
func (e Errors) Code() string {
	if len(e) == 0 {
		return ""
	}
	code, _ := e[0].Extensions["code"].(string)
	return code
}

// IsConstraintViolation reports whether err is a backend unique or foreign
// key violation.
func IsConstraintViolation(err error) bool {
	var gqlErrs Errors
	if errors.As(err, &gqlErrs) {
		return gqlErrs.Code() == "constraint-violation"
	}
	return false
}

// Executor runs one GraphQL document. *Client implements it.
type Executor interface {
	Do(ctx context.Context, doc string, vars map[string]interface{}, out interface{}) error
}

type Config struct {
	Endpoint     string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
}

type Client struct {
	endpoint  string
	http      *resty.Client
	base      *http.Client
	tokens    oauth2.TokenSource
	validator *Validator
	timeout   time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the base transport used for queries and token
// fetches.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.base = hc }
}

// WithTokenSource authorizes every request with tokens from ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("graphql: endpoint is required")
	}
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	c := &Client{
		endpoint:  cfg.Endpoint,
		base:      &http.Client{},
		validator: v,
		timeout:   cfg.Timeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Token fetches use the same base transport as queries.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.base)
	if c.tokens == nil && cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		c.tokens = cc.TokenSource(ctx)
	}

	hc := c.base
	if c.tokens != nil {
		hc = oauth2.NewClient(ctx, c.tokens)
	}
	// Plain-HTTP endpoints are expected inside the cluster.
	c.http = resty.NewWithClient(hc).
		SetDisableWarn(true).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return c, nil
}

// Validate checks a document against the embedded schema without sending it.
func (c *Client) Validate(doc string) error {
	return c.validator.Validate(doc)
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors Errors          `json:"errors"`
}

// Do sends doc with vars and decodes the "data" member into out. The request
// is sent once; callers decide whether a failure is retryable.
func (c *Client) Do(ctx context.Context, doc string, vars map[string]interface{}, out interface{}) error {
	if err := c.validator.Validate(doc); err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := c.do(ctx, doc, vars, out)
	metrics.ObserveUpstream("graphql", start, err)
	return err
}

func (c *Client) do(ctx context.Context, doc string, vars map[string]interface{}, out interface{}) error {
	req := c.http.R().
		SetContext(ctx).
		SetBody(request{Query: doc, Variables: vars}).
		ForceContentType("application/json")

	// With a token source the oauth2 transport sets the header itself.
	if c.tokens == nil {
		bearer := auth.BearerFromContext(ctx)
		if bearer == "" {
			return ErrNoCredentials
		}
		req.SetAuthToken(bearer)
	}

	var r response
	resp, err := req.SetResult(&r).Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("graphql: request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		snippet := resp.String()
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return fmt.Errorf("graphql: unexpected status %d: %s", resp.StatusCode(), strings.TrimSpace(snippet))
	}
	if len(r.Errors) > 0 {
		zerolog.Ctx(ctx).Debug().Str("code", r.Errors.Code()).Err(r.Errors).Msg("graphql returned errors")
		return r.Errors
	}
	if out != nil && len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, out); err != nil {
			return fmt.Errorf("graphql: decode data: %w", err)
		}
	}
	return nil
}
