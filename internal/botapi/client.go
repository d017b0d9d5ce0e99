package botapi

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// API defines the backend calls used by the dashboard.
// This interface is implemented by *Client and can be used for testing.
type API interface {
	GetBotStatus(ctx context.Context) (*BotStatus, error)
	ListGuilds(ctx context.Context) ([]Guild, error)
	GetGuildInfo(ctx context.Context, guildID string) (*GuildInfo, error)
	GetServerStats(ctx context.Context, guildID string) (*ServerStats, error)
	GetServerActivity(ctx context.Context, guildID string) ([]Activity, error)
	GetMusicQueue(ctx context.Context, guildID string) (*MusicQueue, error)
	ClearMusicQueue(ctx context.Context, guildID string) error
	RestartBot(ctx context.Context) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the bot backend HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
	timeout   time.Duration
	logger    zerolog.Logger
}

const (
	defaultBaseURL   = "http://127.0.0.1:3001"
	defaultUserAgent = "botdash/0.1"
	requestTimeout   = 5 * time.Second
	maxErrorBody     = 4 << 10
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger enables debug logging of each request.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		timeout:   requestTimeout,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// GetBotStatus polls bot health.
func (c *Client) GetBotStatus(ctx context.Context) (*BotStatus, error) {
	var payload BotStatus
	if err := c.Request(ctx, http.MethodGet, "/api/bot/status", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ListGuilds lists the guilds the bot is a member of.
func (c *Client) ListGuilds(ctx context.Context) ([]Guild, error) {
	var payload []Guild
	if err := c.Request(ctx, http.MethodGet, "/api/discord/guilds", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetGuildInfo retrieves details for a single guild.
func (c *Client) GetGuildInfo(ctx context.Context, guildID string) (*GuildInfo, error) {
	path, err := guildPath("/api/discord/guilds/", guildID, "")
	if err != nil {
		return nil, err
	}
	var payload GuildInfo
	if err := c.Request(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetServerStats retrieves per-server counters.
func (c *Client) GetServerStats(ctx context.Context, guildID string) (*ServerStats, error) {
	path, err := guildPath("/api/servers/", guildID, "/stats")
	if err != nil {
		return nil, err
	}
	var payload ServerStats
	if err := c.Request(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetServerActivity retrieves the recent activity feed for a server.
func (c *Client) GetServerActivity(ctx context.Context, guildID string) ([]Activity, error) {
	path, err := guildPath("/api/servers/", guildID, "/activity")
	if err != nil {
		return nil, err
	}
	var payload []Activity
	if err := c.Request(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetMusicQueue retrieves the music queue for a server.
func (c *Client) GetMusicQueue(ctx context.Context, guildID string) (*MusicQueue, error) {
	path, err := guildPath("/api/servers/", guildID, "/music/queue")
	if err != nil {
		return nil, err
	}
	var payload MusicQueue
	if err := c.Request(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ClearMusicQueue empties the music queue for a server.
func (c *Client) ClearMusicQueue(ctx context.Context, guildID string) error {
	path, err := guildPath("/api/servers/", guildID, "/music/queue")
	if err != nil {
		return err
	}
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

// RestartBot asks the backend to restart the bot process.
func (c *Client) RestartBot(ctx context.Context) error {
	return c.Request(ctx, http.MethodPost, "/api/bot/restart", nil, nil)
}

// Request issues a single HTTP call. A non-nil body is sent as JSON; a non-nil
// dest receives the decoded response. Errors are *NetworkError, *APIError or
// *DecodeError.
func (c *Client) Request(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	op := method + " " + rel.Path
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Str("op", op).Str("request_id", requestID).Err(err).Msg("request failed")
		return &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug().
		Str("op", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// errorMessage prefers a JSON error/message field, then the plain body, then
// the status text.
func errorMessage(status int, raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}

// IsNetworkError reports whether err is (or wraps) a *NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func guildPath(prefix, guildID, suffix string) (string, error) {
	id := strings.TrimSpace(guildID)
	if id == "" {
		return "", fmt.Errorf("guild id required")
	}
	return prefix + url.PathEscape(id) + suffix, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
