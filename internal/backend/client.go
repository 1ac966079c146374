// Package backend talks to the hosted identity service. Every call carries
// the project public key; session-scoped calls also carry the namespace's
// access token and nothing else.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	id "portalgate/pkg/domain"
	dErrors "portalgate/pkg/domain-errors"
)

// Tokens is a backend session as returned by sign-in and refresh.
type Tokens struct {
	AccessToken        string
	RefreshToken       string
	ExpiresAt          time.Time
	SubjectID          id.SubjectID
	Email              string
	MustChangePassword bool
}

type Client struct {
	baseURL    string
	publicKey  string
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient.Timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

func New(baseURL, publicKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if publicKey == "" {
		return nil, errors.New("backend public key is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		publicKey: publicKey,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         user   `json:"user"`
}

type user struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata userMetadata `json:"user_metadata"`
}

type userMetadata struct {
	MustChangePassword bool `json:"must_change_password"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

// SignIn exchanges credentials for a backend session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}
	body := map[string]string{"email": email, "password": password}
	return c.token(ctx, "password", body)
}

// Refresh renews a backend session from its refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if refreshToken == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "refresh token missing")
	}
	return c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

// SignOut ends the backend session. A session the backend no longer knows
// about counts as signed out.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusNotFound:
		return nil
	default:
		return c.failure(resp)
	}
}

// Adopt resolves a hand-off session from its tokens by asking the backend
// who the access token belongs to. The refresh token is optional; without
// one the session ends when its access token expires.
func (c *Client) Adopt(ctx context.Context, accessToken, refreshToken string) (*Tokens, error) {
	if accessToken == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "access_token is required")
	}
	resp, err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, c.failure(resp)
	}
	var u user
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "invalid backend response")
	}
	return c.toTokens(&tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         u,
	})
}

func (c *Client) token(ctx context.Context, grant string, body any) (*Tokens, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type="+url.QueryEscape(grant), "", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, c.failure(resp)
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "invalid backend response")
	}
	return c.toTokens(&tr)
}

func (c *Client) toTokens(tr *tokenResponse) (*Tokens, error) {
	subject, err := id.ParseSubjectID(tr.User.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "backend returned an invalid subject")
	}
	if tr.AccessToken == "" {
		return nil, dErrors.New(dErrors.CodeUnavailable, "backend returned no access token")
	}
	var expiresAt time.Time
	switch {
	case tr.ExpiresAt > 0:
		expiresAt = time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		expiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return &Tokens{
		AccessToken:        tr.AccessToken,
		RefreshToken:       tr.RefreshToken,
		ExpiresAt:          expiresAt,
		SubjectID:          subject,
		Email:              tr.User.Email,
		MustChangePassword: tr.User.UserMetadata.MustChangePassword,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode backend request")
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build backend request")
	}
	req.Header.Set("apikey", c.publicKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "backend request timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "backend unreachable")
	}
	return resp, nil
}

// failure maps a non-2xx backend response onto a domain error. Client
// errors on auth endpoints are credential problems; everything else is the
// backend being unavailable.
func (c *Client) failure(resp *http.Response) error {
	var er errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &er)
	detail := er.ErrorDescription
	if detail == "" {
		detail = er.Message
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized:
		return dErrors.Wrap(errors.New(detail), dErrors.CodeUnauthorized, "invalid credentials")
	case resp.StatusCode == http.StatusForbidden:
		return dErrors.Wrap(errors.New(detail), dErrors.CodeForbidden, "forbidden")
	case resp.StatusCode == http.StatusTooManyRequests:
		return dErrors.Wrap(errors.New(detail), dErrors.CodeUnavailable, "backend rate limited")
	default:
		return dErrors.Wrap(fmt.Errorf("backend status %d: %s", resp.StatusCode, detail), dErrors.CodeUnavailable, "backend unavailable")
	}
}
