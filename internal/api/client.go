// Package api is the typed client for the remote CTF service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ctfterm/internal/telemetry"
)

const (
	DefaultBaseURL = "https://ctf-backend-ten.vercel.app/api"
	DefaultTimeout = 20 * time.Second

	maxBodyBytes = 1 << 20
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Version    string
	HTTPClient *http.Client
	Logger     *telemetry.Logger
}

type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *telemetry.Logger
}

func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}
	return &Client{
		baseURL:   base,
		userAgent: "ctfterm/" + version,
		http:      hc,
		logger:    opts.Logger,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Details validates a token and returns the profile and progress behind it.
func (c *Client) Details(ctx context.Context, token string) (*DetailsResponse, error) {
	var out DetailsResponse
	if err := c.do(ctx, http.MethodGet, "/auth/details", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	body := loginRequest{EmailID: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Question(ctx context.Context, token string) (*QuestionResponse, error) {
	var out QuestionResponse
	if err := c.do(ctx, http.MethodGet, "/ctf/question", token, nil, &out); err != nil {
		return nil, err
	}
	out.Story = PlainText(out.Story)
	out.Question = PlainText(out.Question)
	out.Message = PlainText(out.Message)
	return &out, nil
}

func (c *Client) Hint(ctx context.Context, token string) (*HintResponse, error) {
	var out HintResponse
	if err := c.do(ctx, http.MethodGet, "/ctf/hint", token, nil, &out); err != nil {
		return nil, err
	}
	out.Hint = PlainText(out.Hint)
	out.Message = PlainText(out.Message)
	return &out, nil
}

func (c *Client) CheckFlag(ctx context.Context, token, flag string) (*CheckFlagResponse, error) {
	var out CheckFlagResponse
	body := checkFlagRequest{Flag: flag}
	if err := c.do(ctx, http.MethodPost, "/ctf/check-flag", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Leaderboard(ctx context.Context) (*LeaderboardResponse, error) {
	var out LeaderboardResponse
	if err := c.do(ctx, http.MethodGet, "/ctf/leaderboard", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, reqBody any, out response) error {
	start := time.Now()
	status, err := c.exchange(ctx, method, path, token, reqBody, out)
	fields := map[string]any{
		"method":      method,
		"endpoint":    path,
		"status":      status,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	switch {
	case err == nil:
		fields["outcome"] = outcome(out.envelope())
		c.logger.Info("api.request", fields)
	case errors.Is(err, ErrMalformedResponse):
		fields["outcome"] = "malformed"
		fields["error"] = err.Error()
		c.logger.Warn("api.request", fields)
	default:
		fields["outcome"] = "transport_error"
		fields["error"] = err.Error()
		c.logger.Error("api.request", fields)
	}
	return err
}

func (c *Client) exchange(ctx context.Context, method, path, token string, reqBody any, out response) (int, error) {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return 0, fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, &TransportError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return res.StatusCode, &TransportError{Op: "read " + path, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return res.StatusCode, malformed(path, err.Error())
	}
	env := out.envelope()
	if env.Success == nil {
		return res.StatusCode, malformed(path, "missing success field")
	}
	if !*env.Success {
		return res.StatusCode, nil
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return res.StatusCode, malformed(path, fmt.Sprintf("success with status %d", res.StatusCode))
	}
	if reason := out.validate(); reason != "" {
		return res.StatusCode, malformed(path, reason)
	}
	return res.StatusCode, nil
}

func outcome(env *Envelope) string {
	if env.OK() {
		return "success"
	}
	return "rejected"
}
