package neodb

import (
	"context"
	"fmt"
	"time"

	"profilesync/pkg/httpclient"
	"profilesync/pkg/logger"
)

// shelfPage is one page of a user's completed shelf for one category.
type shelfPage struct {
	Data  []shelfMark `json:"data"`
	Pages int         `json:"pages"`
	Count int         `json:"count"`
}

type shelfMark struct {
	Item        shelfItem `json:"item"`
	CreatedTime string    `json:"created_time"`
	RatingGrade float64   `json:"rating_grade"`
}

type shelfItem struct {
	UUID     string  `json:"uuid"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
	CoverURL string  `json:"cover_image_url"`
}

// Client fetches a user's NeoDB shelves with a bearer token.
type Client struct {
	http    *httpclient.Client
	baseURL string
}

func NewClient(baseURL, token string, timeout time.Duration, log logger.Logger) *Client {
	hc := httpclient.New(timeout, log)
	hc.SetHeader("Authorization", "Bearer "+token)
	return &Client{http: hc, baseURL: baseURL}
}

// FetchShelfPage returns one page (1-based) of the completed shelf for a
// category.
func (c *Client) FetchShelfPage(ctx context.Context, category string, page int) (*shelfPage, error) {
	url := fmt.Sprintf("%s/api/me/shelf/complete?category=%s&page=%d", c.baseURL, category, page)
	var resp shelfPage
	if err := c.http.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
