package shipping

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/nippysky/marobi/config"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrRejected wraps a 4xx answer; the provider message is kept in the error text.
	ErrRejected = errors.New("shipping provider rejected request")
	// ErrUnavailable is returned when every attempt failed with a transport error, 429 or 5xx.
	ErrUnavailable = errors.New("shipping provider unavailable")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultTimeout  = 15 * time.Second
	defaultAttempts = 3
	baseBackoff     = 200 * time.Millisecond
	maxBackoff      = 3 * time.Second
)

// Client talks to the courier aggregation API used for delivery quotes.
type Client struct {
	baseURL  string
	apiKey   string
	timeout  time.Duration
	attempts int
	backoff  time.Duration
}

func NewClient(cfg config.ShippingConfig) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		timeout:  time.Duration(cfg.Timeout) * time.Second,
		attempts: cfg.Attempts,
		backoff:  baseBackoff,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.attempts <= 0 {
		c.attempts = defaultAttempts
	}
	return c
}

// ValidateAddress registers addr with the provider and returns its address code.
func (c *Client) ValidateAddress(ctx context.Context, addr Address) (*ValidatedAddress, error) {
	var out ValidatedAddress
	if err := c.post(ctx, "/shipping/address/validate", addr, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchRates returns courier quotes for a package.
func (c *Client) FetchRates(ctx context.Context, req RateRequest) (*RateQuote, error) {
	if req.PickupDate == "" {
		req.PickupDate = time.Now().Add(24 * time.Hour).Format("2006-01-02")
	}
	var out RateQuote
	if err := c.post(ctx, "/shipping/fetch_rates", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var lastErr error
	wait := c.backoff
	for attempt := 1; attempt <= c.attempts; attempt++ {
		retry, err := c.do(ctx, path, body, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		if attempt == c.attempts {
			break
		}
		zap.L().Warn("shipping request failed, retrying",
			zap.String("namespace", "shipping"),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > maxBackoff {
			wait = maxBackoff
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrUnavailable, path, c.attempts, lastErr)
}

// do performs one request. retry reports whether a failure is worth repeating.
func (c *Client) do(ctx context.Context, path string, body, out interface{}) (retry bool, err error) {
	var (
		code int
		raw  string
	)
	err = gout.POST(c.baseURL+path).
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(gout.H{
			"Authorization": "Bearer " + c.apiKey,
			"Accept":        "application/json",
		}).
		SetJSON(body).
		BindBody(&raw).
		Code(&code).
		Do()
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, errors.Wrap(err, "shipping transport")
	}

	switch {
	case code == http.StatusTooManyRequests || code >= 500:
		return true, fmt.Errorf("shipping provider returned %d", code)
	case code >= 400:
		var env envelope
		msg := strings.TrimSpace(raw)
		if json.UnmarshalFromString(raw, &env) == nil && env.Message != "" {
			msg = env.Message
		}
		return false, fmt.Errorf("%w (%d): %s", ErrRejected, code, msg)
	}

	env := envelope{Data: out}
	if err := json.UnmarshalFromString(raw, &env); err != nil {
		return false, errors.Wrap(err, "decode shipping response")
	}
	if env.Status != "" && !strings.EqualFold(env.Status, "success") {
		return false, fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	return false, nil
}
