package wakatime

import (
	"context"
	"encoding/base64"
	"time"

	"profilesync/pkg/httpclient"
	"profilesync/pkg/logger"
)

const statsURL = "https://wakatime.com/api/v1/users/current/stats/last_7_days"

type statsResponse struct {
	Data struct {
		Languages          []language `json:"languages"`
		HumanReadableRange string     `json:"human_readable_range"`
	} `json:"data"`
}

type language struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Text    string  `json:"text"`
}

// Client fetches last-7-days coding stats. The API key rides in a basic
// auth header with the key as username.
type Client struct {
	http *httpclient.Client
	url  string
}

func NewClient(apiKey string, timeout time.Duration, log logger.Logger) *Client {
	hc := httpclient.New(timeout, log)
	hc.SetHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(apiKey)))
	return &Client{http: hc, url: statsURL}
}

// SetURL points the client at a different endpoint, used in tests.
func (c *Client) SetURL(url string) {
	c.url = url
}

// FetchStats returns the weekly language breakdown.
func (c *Client) FetchStats(ctx context.Context) (*statsResponse, error) {
	var resp statsResponse
	if err := c.http.GetJSON(ctx, c.url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
