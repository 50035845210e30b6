package vsco

import (
	"context"
	"fmt"
	"strings"
	"time"

	"profilesync/pkg/errors"
	"profilesync/pkg/httpclient"
	"profilesync/pkg/logger"
)

const apiBaseURL = "https://vsco.co/api/2.0"

type sitesResponse struct {
	Sites []site `json:"sites"`
}

type site struct {
	ID        int64  `json:"id"`
	Subdomain string `json:"subdomain"`
}

type mediasResponse struct {
	Media []mediaItem `json:"media"`
}

type mediaItem struct {
	ID            string `json:"_id"`
	UploadDate    int64  `json:"upload_date"`
	Description   string `json:"description"`
	ResponsiveURL string `json:"responsive_url"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	IsVideo       bool   `json:"is_video"`
}

// imageURL normalizes the responsive URL, which the API serves without a
// scheme.
func (m mediaItem) imageURL() string {
	if m.ResponsiveURL == "" {
		return ""
	}
	if strings.HasPrefix(m.ResponsiveURL, "http://") || strings.HasPrefix(m.ResponsiveURL, "https://") {
		return m.ResponsiveURL
	}
	return "https://" + m.ResponsiveURL
}

// Client fetches a VSCO profile gallery. The gallery API is public; only a
// browser user agent is required.
type Client struct {
	http    *httpclient.Client
	baseURL string
	log     logger.Logger
}

func NewClient(userAgent string, timeout time.Duration, log logger.Logger) *Client {
	hc := httpclient.New(timeout, log)
	hc.SetHeader("User-Agent", userAgent)
	return &Client{http: hc, baseURL: apiBaseURL, log: log}
}

// SetBaseURL points the client at a different host, used in tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// ResolveSiteID looks up the numeric site ID behind a profile subdomain.
func (c *Client) ResolveSiteID(ctx context.Context, username string) (int64, error) {
	url := fmt.Sprintf("%s/sites?subdomain=%s", c.baseURL, username)
	var resp sitesResponse
	if err := c.http.GetJSON(ctx, url, &resp); err != nil {
		return 0, err
	}
	if len(resp.Sites) == 0 {
		return 0, errors.New(errors.ErrorTypeNotFound, 0, "no site found for subdomain %q", username)
	}
	return resp.Sites[0].ID, nil
}

// FetchMedias returns the most recent size gallery entries for a site.
func (c *Client) FetchMedias(ctx context.Context, siteID int64, size int) ([]mediaItem, error) {
	url := fmt.Sprintf("%s/medias?site_id=%d&size=%d", c.baseURL, siteID, size)
	var resp mediasResponse
	if err := c.http.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Media, nil
}

// Downloader exposes the underlying client for the image download pool.
func (c *Client) Downloader() *httpclient.Client {
	return c.http
}
