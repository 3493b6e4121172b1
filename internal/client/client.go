// Package client talks to a radar server over HTTP. It implements polling.Backend so a
// device-side poller can run against a remote server.
package client

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

	"radar/internal/domain"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var ErrRateLimited = errors.New("rate limited")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("radar api: %d %s", e.Status, e.Message)
}

// Unwrap lets callers match the domain sentinels with errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest:
		return domain.ErrInvalidArgument
	case e.Status == http.StatusNotFound:
		return domain.ErrNotFound
	case e.Status == http.StatusConflict:
		return domain.ErrConflict
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Status >= 500:
		return domain.ErrStorage
	}
	return nil
}

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

type Client struct {
	base  string
	http  *http.Client
	cb    *gobreaker.CircuitBreaker
	log   *zap.Logger
	token string
}

func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	st := gobreaker.Settings{
		Name:        "radar-api",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// client mistakes say nothing about the server's health
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info("circuit breaker state", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &Client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: cfg.Timeout},
		cb:   gobreaker.NewCircuitBreaker(st),
		log:  log,
	}
}

// SetToken makes subsequent requests authenticate with a device token.
func (c *Client) SetToken(token string) { c.token = token }

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// CreateUser registers a user and remembers the returned device token.
func (c *Client) CreateUser(ctx context.Context, name, email string) (*User, error) {
	var out struct {
		User  User   `json:"user"`
		Token string `json:"token"`
	}
	body := map[string]string{"name": name, "email": email}
	if err := c.do(ctx, http.MethodPost, "/users", nil, body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out.User, nil
}

func (c *Client) ReportLocation(ctx context.Context, userID string, fix domain.Fix) error {
	body := map[string]any{
		"user_id":   userID,
		"latitude":  fix.Latitude,
		"longitude": fix.Longitude,
	}
	if fix.Accuracy != nil {
		body["accuracy"] = *fix.Accuracy
	}
	return c.do(ctx, http.MethodPost, "/users/location", nil, body, nil)
}

func (c *Client) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.NearbyUser, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	if q.RadiusMeters > 0 {
		params.Set("radius", strconv.FormatFloat(q.RadiusMeters, 'f', -1, 64))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.ViewerID != "" {
		params.Set("user_id", q.ViewerID)
	}
	var out struct {
		Users []domain.NearbyUser `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/nearby", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, query, in, out)
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		c.log.Debug("api error", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.String("error", e.Error))
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("radar api: decode %s: %w", path, err)
	}
	return nil
}
