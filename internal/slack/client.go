package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/channel-metrics-exporter/internal/config"
	"github.com/channel-metrics-exporter/internal/validation"
)

// Client talks to the Slack Web API with bearer authentication, walking
// cursor pagination and retrying rate-limited and transient failures.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string

	maxAttempts     int
	membersPageSize int
	usersPageSize   int
	historyPageSize int

	log zerolog.Logger

	// sleep is swapped out in tests so retry backoff doesn't block them
	sleep func(time.Duration)
}

// NewClient creates a new Slack API client
func NewClient(cfg *config.SlackConfig, log zerolog.Logger) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:         cfg.BaseURL,
		token:           validation.CleanToken(cfg.BotToken),
		maxAttempts:     cfg.MaxAttempts,
		membersPageSize: cfg.MembersPageSize,
		usersPageSize:   cfg.UsersPageSize,
		historyPageSize: cfg.HistoryPageSize,
		log:             log.With().Str("component", "slack").Logger(),
		sleep:           time.Sleep,
	}
}

// call issues one authenticated GET and returns the raw body plus the
// pagination metadata, after the envelope's ok/error fields have been
// checked.
//
// Retry behavior:
//   - HTTP 429: sleep for the Retry-After hint (at least one second,
//     default one second when absent) and retry; each pass consumes one
//     of the bounded attempts.
//   - in-body "internal_error"/"ratelimited": retry with linearly
//     increasing backoff of 1+attempt seconds.
//   - any other in-body error: fail immediately with *APIError.
//   - network errors: retry with the same linear backoff; if the budget
//     runs out the last one surfaces as *TransportError.
func (c *Client) call(ctx context.Context, endpoint string, params url.Values) ([]byte, *responseMetadata, error) {
	var lastNetErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		body, status, retryAfter, err := c.doRequest(ctx, endpoint, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, &TransportError{Endpoint: endpoint, Err: err}
			}
			lastNetErr = err
			if attempt < c.maxAttempts-1 {
				c.sleep(time.Duration(1+attempt) * time.Second)
			}
			continue
		}

		if status == http.StatusTooManyRequests {
			wait := retryAfter
			if wait < time.Second {
				wait = time.Second
			}
			c.log.Debug().Str("endpoint", endpoint).Dur("wait", wait).Msg("Rate limited, backing off")
			c.sleep(wait)
			continue
		}

		if status != http.StatusOK {
			return nil, nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("unexpected status %d", status)}
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, nil, &TransportError{Endpoint: endpoint, Err: err}
		}
		if env.OK {
			return body, env.ResponseMetadata, nil
		}

		code := env.Error
		if code == "" {
			code = "unknown_error"
		}
		if (code == "internal_error" || code == "ratelimited") && attempt < c.maxAttempts-1 {
			c.log.Debug().Str("endpoint", endpoint).Str("error", code).Int("attempt", attempt).Msg("Transient API error, retrying")
			c.sleep(time.Duration(1+attempt) * time.Second)
			continue
		}
		return nil, nil, &APIError{Endpoint: endpoint, Code: code}
	}

	if lastNetErr != nil {
		return nil, nil, &TransportError{Endpoint: endpoint, Err: lastNetErr}
	}
	return nil, nil, &RateLimitError{Endpoint: endpoint, Attempts: c.maxAttempts}
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) (body []byte, status int, retryAfter time.Duration, err error) {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if secs, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		} else {
			retryAfter = time.Second
		}
	}
	return body, resp.StatusCode, retryAfter, nil
}

// errStopPaginate lets a page callback end the walk early without error
var errStopPaginate = fmt.Errorf("stop pagination")

// paginate re-issues the request with the evolving cursor until a
// response carries no next_cursor. The walk always restarts from the
// beginning; cursors are never persisted.
func (c *Client) paginate(ctx context.Context, endpoint string, params url.Values, page func(raw []byte) error) error {
	cursor := ""
	for {
		p := url.Values{}
		for k, v := range params {
			p[k] = v
		}
		if cursor != "" {
			p.Set("cursor", cursor)
		}

		raw, meta, err := c.call(ctx, endpoint, p)
		if err != nil {
			return err
		}
		if err := page(raw); err != nil {
			if err == errStopPaginate {
				return nil
			}
			return err
		}
		if meta == nil || meta.NextCursor == "" {
			return nil
		}
		cursor = meta.NextCursor
	}
}
