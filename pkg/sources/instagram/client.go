package instagram

import (
	"context"
	"fmt"
	"time"

	"profilesync/pkg/httpclient"
	"profilesync/pkg/logger"
)

const feedBaseURL = "https://i.instagram.com/api/v1"

// appID is the web app identifier Instagram expects alongside cookie auth.
const appID = "936619743392459"

// feedResponse is the raw shape of the user feed endpoint.
type feedResponse struct {
	Items  []feedItem `json:"items"`
	Status string     `json:"status"`
}

type feedItem struct {
	ID            string         `json:"id"`
	PK            int64          `json:"pk"`
	TakenAt       int64          `json:"taken_at"`
	Caption       *caption       `json:"caption"`
	ImageVersions *imageVersions `json:"image_versions2"`
	CarouselMedia []carouselItem `json:"carousel_media"`
}

type caption struct {
	Text string `json:"text"`
}

type imageVersions struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type carouselItem struct {
	ImageVersions *imageVersions `json:"image_versions2"`
}

// Client fetches a user's feed using browser session cookies.
type Client struct {
	http    *httpclient.Client
	baseURL string
}

// NewClient builds a feed client authenticated with the sessionid and
// csrftoken cookies of a logged-in browser session.
func NewClient(sessionID, csrfToken, userAgent string, timeout time.Duration, log logger.Logger) *Client {
	hc := httpclient.New(timeout, log)
	hc.SetHeaders(map[string]string{
		"User-Agent":  userAgent,
		"Cookie":      fmt.Sprintf("sessionid=%s; csrftoken=%s", sessionID, csrfToken),
		"X-CSRFToken": csrfToken,
		"X-IG-App-ID": appID,
		"Referer":     "https://www.instagram.com/",
	})
	return &Client{http: hc, baseURL: feedBaseURL}
}

// SetBaseURL points the client at a different host, used in tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// FetchFeed returns the most recent count feed items for the user. An
// expired session surfaces as an auth error via the login-redirect check.
func (c *Client) FetchFeed(ctx context.Context, userID string, count int) ([]feedItem, error) {
	url := fmt.Sprintf("%s/feed/user/%s/?count=%d", c.baseURL, userID, count)
	var resp feedResponse
	if err := c.http.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Downloader exposes the underlying client for the image download pool.
func (c *Client) Downloader() *httpclient.Client {
	return c.http
}
