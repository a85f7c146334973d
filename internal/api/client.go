// Package api is the single HTTP transport to the admission backend. Every
// kiosk surface issues its calls through one Client, which injects the bearer
// token, logs every failing call centrally and re-signals the error to the
// caller. There are no automatic retries: a failed call stays failed until a
// user action or a polling tick tries again.
package api

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

	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/observability"
)

// TokenSource supplies the bearer token attached to authenticated calls.
// An empty token means the call goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client is the API transport.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	log    zerolog.Logger
}

// NewClient builds a transport for the given base URL (e.g.
// "http://localhost:8000/api"). tokens may be nil for public-only kiosks.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log zerolog.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
		log:    log,
	}
}

// Error is a non-2xx backend response. Detail carries the backend's
// structured "detail" field; a list of field errors is joined into one
// display string.
type Error struct {
	StatusCode int
	Detail     string
	URL        string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d from %s: %s", e.StatusCode, e.URL, e.Detail)
	}
	return fmt.Sprintf("api: %d from %s", e.StatusCode, e.URL)
}

// IsStatus reports whether err is a backend Error with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// do issues one request. body is JSON-encoded when non-nil; form, when
// non-nil, wins over body and is sent urlencoded. out, when non-nil, receives
// the decoded JSON response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, form url.Values, out any) error {
	raw, err := c.doRaw(ctx, method, path, query, body, form)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// doRaw is do without response decoding; used directly for binary downloads.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body any, form url.Values) ([]byte, error) {
	fullURL := c.base + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	contentType := ""
	switch {
	case form != nil:
		reqBody = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case body != nil:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.RecordAPIRequest(path, false, time.Since(start).Seconds())
		c.log.Error().Str("url", fullURL).Err(err).Msg("API error")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordAPIRequest(path, false, time.Since(start).Seconds())
		c.log.Error().Str("url", fullURL).Err(err).Msg("API error")
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(raw),
			URL:        fullURL,
		}
		observability.RecordAPIRequest(path, false, time.Since(start).Seconds())
		c.log.Error().Str("url", fullURL).Int("status", resp.StatusCode).Str("detail", apiErr.Detail).Msg("API error")
		return nil, apiErr
	}

	observability.RecordAPIRequest(path, true, time.Since(start).Seconds())
	return raw, nil
}

// parseDetail extracts the backend's "detail" field. It is either a plain
// string or a list of field errors with "msg" entries; the latter is joined
// with "; " into one display string.
func parseDetail(raw []byte) string {
	var wrapper struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || len(wrapper.Detail) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(wrapper.Detail, &asString); err == nil {
		return asString
	}

	var asList []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(wrapper.Detail, &asList); err == nil {
		msgs := make([]string, 0, len(asList))
		for _, item := range asList {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return string(wrapper.Detail)
}
