// Package httpclient provides the HTTP client shared by all pipelines:
// default headers, JSON decoding with classified errors, login-redirect
// detection, sequential endpoint-variant fallback, and binary downloads.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"profilesync/pkg/errors"
	"profilesync/pkg/logger"
)

// loginPathMarkers identify redirects to a login page. Some APIs answer an
// expired session with a 302 to their login form instead of a 401; the
// final response URL is the only reliable signal.
var loginPathMarkers = []string{
	"/accounts/login",
	"/login",
	"/signin",
}

// Client is a thin wrapper around http.Client with per-client headers.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// New creates a client with the given timeout. A zero timeout falls back
// to 30 seconds.
func New(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
		},
		logger: log,
	}
}

// SetHeader sets a header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once.
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// do performs a request with the configured headers and logs it.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	return c.do(req)
}

// GetJSON performs a GET request and decodes the JSON response into target.
// A final response URL pointing at a login page is reported as an auth
// error regardless of status code.
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkLoginRedirect(resp); err != nil {
		return err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	return c.decodeJSON(resp, url, target)
}

// GetJSONFallback tries each URL in order, returning the first successful
// decode. Only the last error is returned when all variants fail.
func (c *Client) GetJSONFallback(ctx context.Context, urls []string, target interface{}) error {
	if len(urls) == 0 {
		return errors.New(errors.ErrorTypeConfig, 0, "no endpoints configured")
	}

	var lastErr error
	for i, url := range urls {
		if i > 0 {
			c.logger.WarnWithFields("endpoint failed, trying next variant", map[string]interface{}{
				"failed":  urls[i-1],
				"next":    url,
				"error":   lastErr.Error(),
				"variant": i + 1,
			})
		}
		if err := c.GetJSON(ctx, url, target); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// PatchJSON performs a PATCH with a JSON body and decodes the response
// into target when target is non-nil.
func (c *Client) PatchJSON(ctx context.Context, url string, body interface{}, target interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.New(errors.ErrorTypeParsing, 0, "failed to encode request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	if target == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	return c.decodeJSON(resp, url, target)
}

// Download fetches binary content from the given URL.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read download body: %v", err)
	}

	c.logger.DebugWithFields("download completed", map[string]interface{}{
		"url":  url,
		"size": len(data),
	})

	return data, nil
}

// decodeJSON reads and unmarshals a response body.
func (c *Client) decodeJSON(resp *http.Response, url string, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkLoginRedirect inspects the final response URL after redirects. The
// http.Client has already followed them, so resp.Request holds the last
// request of the chain.
func (c *Client) checkLoginRedirect(resp *http.Response) error {
	if resp.Request == nil || resp.Request.URL == nil {
		return nil
	}

	finalPath := resp.Request.URL.Path
	for _, marker := range loginPathMarkers {
		if strings.HasPrefix(finalPath, marker) {
			c.logger.WarnWithFields("redirected to login page, session invalid", map[string]interface{}{
				"final_url": resp.Request.URL.String(),
			})
			return errors.New(errors.ErrorTypeAuth, resp.StatusCode,
				"session expired: redirected to %s", resp.Request.URL.String())
		}
	}

	return nil
}

// checkResponseStatus maps HTTP status codes onto the error taxonomy.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeAuth, resp.StatusCode, "authentication required")
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrorTypeNotFound, resp.StatusCode, "resource not found")
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeServerError, resp.StatusCode, "server error")
	default:
		return errors.New(errors.ErrorTypeUnknown, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
	}
}
