package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"bhss/internal/errors"
	"bhss/models"

	"github.com/tidwall/gjson"
)

// Client talks to the BHSS REST API with the persisted bearer token
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
}

// NewClient creates a client for cfg. A nil tokens store keeps the session
// in memory.
func NewClient(cfg *Config, tokens TokenStore) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens: tokens,
	}, nil
}

// Login exchanges credentials for a token and persists the session
func (c *Client) Login(ctx context.Context, email, password string) (*models.Session, error) {
	var session models.Session
	err := c.send(ctx, http.MethodPost, "/api/users/login", nil,
		models.LoginInput{Email: email, Password: password}, &session, false)
	if err != nil {
		return nil, err
	}
	if err := c.tokens.Save(Auth{Token: session.Token, User: session.User}); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}
	return &session, nil
}

// Logout forgets the persisted session
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// Me returns the user the server resolves the token to
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.Get(ctx, "/api/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the user stored with the session, without a round trip
func (c *Client) CurrentUser() (*models.User, error) {
	auth, err := c.tokens.Load()
	if err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, nil
	}
	return &auth.User, nil
}

// Token returns the persisted bearer token, or "" when logged out
func (c *Client) Token() string {
	auth, err := c.tokens.Load()
	if err != nil || auth == nil {
		return ""
	}
	return auth.Token
}

// Get decodes the JSON response of GET path into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.send(ctx, http.MethodGet, path, query, nil, out, true)
}

// Post sends body as JSON and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.send(ctx, http.MethodPost, path, nil, body, out, true)
}

// Patch sends body as JSON and decodes the response into out
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.send(ctx, http.MethodPatch, path, nil, body, out, true)
}

// Delete issues DELETE path
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil, nil, true)
}

// Part is one file of a multipart upload
type Part struct {
	Field    string
	Filename string
	Body     io.Reader
}

// Upload posts a multipart form with the given fields and files and decodes
// the response into out
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, parts []Part, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return errors.Wrap(err, "failed to encode form")
		}
	}
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.Field, p.Filename)
		if err != nil {
			return errors.Wrap(err, "failed to encode form")
		}
		if _, err := io.Copy(fw, p.Body); err != nil {
			return errors.Wrapf(err, "failed to read %s", p.Filename)
		}
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(err, "failed to encode form")
	}

	resp, err := c.do(ctx, http.MethodPost, path, nil, &buf, mw.FormDataContentType(), true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

// Download streams the body of GET path into w, e.g. a PDF or workbook
func (c *Client) Download(ctx context.Context, path string, query url.Values, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil, "", true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return errors.ExternalServiceError("bhss", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out interface{}, auth bool) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	resp, err := c.do(ctx, method, path, query, reader, contentType, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

// do dispatches the request and turns any non-2xx response into an error.
// Authenticated calls without a stored token never reach the network.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, auth bool) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if auth {
		token := c.Token()
		if token == "" {
			return nil, errors.Unauthorized("not logged in")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("bhss", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, responseError(resp.StatusCode, data)
	}
	return resp, nil
}

// responseError builds the error for a failed response. The message comes
// from the body's error or message field when present.
func responseError(status int, body []byte) error {
	msg := ""
	if gjson.ValidBytes(body) {
		for _, field := range []string{"error", "message"} {
			if v := gjson.GetBytes(body, field); v.Type == gjson.String && v.String() != "" {
				msg = v.String()
				break
			}
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("Request failed (%d)", status)
	}
	if status == http.StatusUnauthorized {
		return errors.Unauthorized(msg)
	}
	return errors.New(errors.CodeExternalService, msg)
}

func decode(resp *http.Response, out interface{}) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.ExternalServiceError("bhss", fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
