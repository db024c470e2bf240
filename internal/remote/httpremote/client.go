// Package httpremote implements remote.Store against a fastline sync gateway.
package httpremote

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

	"github.com/sethvargo/go-retry"

	"github.com/hyperengineering/fastline/internal/remote"
	"github.com/hyperengineering/fastline/internal/types"
)

// ErrUnauthorized is returned when the gateway rejects the token.
var ErrUnauthorized = errors.New("gateway rejected credentials")

// StatusError is a non-success gateway response.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("gateway returned %d", e.Code)
	}
	return fmt.Sprintf("gateway returned %d: %s", e.Code, e.Detail)
}

// Config configures the gateway client.
type Config struct {
	BaseURL    string
	Token      string
	MaxRetries uint64
	Backoff    time.Duration
	HTTPClient *http.Client
}

// Client is a remote.Store backed by the gateway HTTP API.
type Client struct {
	baseURL    string
	token      string
	maxRetries uint64
	backoff    time.Duration
	http       *http.Client
}

var _ remote.Store = (*Client)(nil)

// New creates a Client. BaseURL is required.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, remote.ErrNotConfigured
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		http:       cfg.HTTPClient,
	}
	if c.backoff <= 0 {
		c.backoff = 200 * time.Millisecond
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	return c, nil
}

// UpsertFasting posts fasting logs to the gateway.
func (c *Client) UpsertFasting(ctx context.Context, logs []types.FastingLog) error {
	return c.sendFamily(ctx, types.FamilyFasting, logs)
}

// UpsertWater posts water logs to the gateway.
func (c *Client) UpsertWater(ctx context.Context, logs []types.WaterLog) error {
	return c.sendFamily(ctx, types.FamilyWater, logs)
}

// UpsertWeight posts weight logs to the gateway.
func (c *Client) UpsertWeight(ctx context.Context, logs []types.WeightLog) error {
	return c.sendFamily(ctx, types.FamilyWeight, logs)
}

// UpdateMood patches the mood of a synced fasting log.
func (c *Client) UpdateMood(ctx context.Context, id, mood string) error {
	path := "/api/v1/fasting/" + url.PathEscape(id) + "/mood"
	err := c.do(ctx, http.MethodPatch, path, map[string]string{"mood": mood})
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return fmt.Errorf("fasting log %s: %w", id, remote.ErrNotFound)
	}
	return err
}

// SavePushSubscription registers a push subscription descriptor.
func (c *Client) SavePushSubscription(ctx context.Context, sub remote.PushSubscription) error {
	body := struct {
		Subscription json.RawMessage `json:"subscription"`
		UserID       string          `json:"userId,omitempty"`
	}{sub.Subscription, sub.UserID}
	return c.do(ctx, http.MethodPost, "/api/v1/push/subscribe", body)
}

// Ping calls the gateway health endpoint once, without retries.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func (c *Client) sendFamily(ctx context.Context, f types.Family, logs any) error {
	return c.do(ctx, http.MethodPost, "/api/v1/sync/"+string(f), logs)
}

// do sends an authenticated JSON request, retrying transport errors and 5xx
// responses with exponential backoff until maxRetries or the context ends.
func (c *Client) do(ctx context.Context, method, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		case resp.StatusCode == http.StatusUnauthorized:
			return ErrUnauthorized
		case resp.StatusCode >= 500:
			return retry.RetryableError(readStatus(resp))
		default:
			return readStatus(resp)
		}
	})
}

// readStatus builds a StatusError, taking the detail from an RFC 7807 body when present.
func readStatus(resp *http.Response) error {
	var problem struct {
		Detail string `json:"detail"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &problem)
	return &StatusError{Code: resp.StatusCode, Detail: problem.Detail}
}
