// Package remote is the client side of the sync server's JSON API. Every
// call returns either data or a *remote.Error; the core never assumes a
// remote call succeeds.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a14a-org/claudeskill-manager/internal/storage"
)

// Error is a failed remote call: connectivity, timeout or a non-2xx status.
// Status is zero when the request never reached the server.
type Error struct {
	Op     string
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("remote %s: server returned %d: %s", e.Op, e.Status, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("remote %s failed", e.Op)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports whether the failure was a plain 404.
func (e *Error) NotFound() bool { return e.Status == http.StatusNotFound }

// Client talks to one account on one server. Token is the Bearer token from
// Login; only Health, Signup and Login work without it.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Health is the batch-level reachability precondition: push/pull abort early
// when it fails rather than reporting the same network error once per skill.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/api/health", nil, nil)
}

func (c *Client) Signup(ctx context.Context, account, password string) error {
	body := map[string]string{"account": account, "password": password}
	return c.call(ctx, http.MethodPost, "/api/signup", body, nil)
}

// Login returns a fresh Bearer token and remembers it on the client.
func (c *Client) Login(ctx context.Context, account, password string) (string, error) {
	body := map[string]string{"account": account, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/login", body, &resp); err != nil {
		return "", err
	}
	c.Token = resp.Token
	return resp.Token, nil
}

// ChangePassword swaps the account login password. The server invalidates
// nothing crypto-side (the vault passphrase is separate); it returns a fresh
// token, which is remembered on the client.
func (c *Client) ChangePassword(ctx context.Context, current, next string) (string, error) {
	body := map[string]string{"current": current, "next": next}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.call(ctx, http.MethodPut, "/api/password", body, &resp); err != nil {
		return "", err
	}
	c.Token = resp.Token
	return resp.Token, nil
}

func (c *Client) GetKeyring(ctx context.Context) (storage.Keyring, error) {
	var kr storage.Keyring
	if err := c.call(ctx, http.MethodGet, "/api/keyring", nil, &kr); err != nil {
		return storage.Keyring{}, err
	}
	return kr, nil
}

func (c *Client) PutKeyring(ctx context.Context, kr storage.Keyring) error {
	return c.call(ctx, http.MethodPut, "/api/keyring", kr, nil)
}

// ListSkills returns every skill's current pointer.
func (c *Client) ListSkills(ctx context.Context) ([]storage.Head, error) {
	var heads []storage.Head
	if err := c.call(ctx, http.MethodGet, "/api/skills", nil, &heads); err != nil {
		return nil, err
	}
	return heads, nil
}

// PushVersion records a version idempotently and returns the server-side
// creation time.
func (c *Client) PushVersion(ctx context.Context, v storage.Version) (time.Time, error) {
	var resp struct {
		CreatedAt time.Time `json:"created_at"`
	}
	path := skillPath(v.Key) + "/versions/" + v.Hash
	if err := c.call(ctx, http.MethodPut, path, v, &resp); err != nil {
		return time.Time{}, err
	}
	return resp.CreatedAt, nil
}

// SetCurrent moves the skill's current pointer; callers invoke it right
// after PushVersion succeeds.
func (c *Client) SetCurrent(ctx context.Context, key, hash string) error {
	body := map[string]string{"hash": hash}
	return c.call(ctx, http.MethodPost, skillPath(key)+"/current", body, nil)
}

func (c *Client) GetVersion(ctx context.Context, key, hash string) (storage.Version, error) {
	var v storage.Version
	if err := c.call(ctx, http.MethodGet, skillPath(key)+"/versions/"+hash, nil, &v); err != nil {
		return storage.Version{}, err
	}
	return v, nil
}

func (c *Client) ListVersions(ctx context.Context, key string, limit int) ([]storage.Version, error) {
	path := skillPath(key) + "/versions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var vs []storage.Version
	if err := c.call(ctx, http.MethodGet, path, nil, &vs); err != nil {
		return nil, err
	}
	return vs, nil
}

// skillPath maps "type:name" onto /api/skills/{type}/{name}.
func skillPath(key string) string {
	typ, name, _ := strings.Cut(key, ":")
	return "/api/skills/" + url.PathEscape(typ) + "/" + url.PathEscape(name)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Op: op, Status: resp.StatusCode, Msg: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return &Error{Op: op, Err: err}
		}
	}
	return nil
}
