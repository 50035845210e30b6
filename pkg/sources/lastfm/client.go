package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"profilesync/pkg/httpclient"
	"profilesync/pkg/logger"
)

const apiBaseURL = "https://ws.audioscrobbler.com/2.0/"

type recentTracksResponse struct {
	RecentTracks struct {
		Track []track `json:"track"`
	} `json:"recenttracks"`
}

type track struct {
	Name   string     `json:"name"`
	Artist artistName `json:"artist"`
	Album  textField  `json:"album"`
	Date   *trackDate `json:"date"`
	Attr   *trackAttr `json:"@attr"`
}

type trackAttr struct {
	NowPlaying string `json:"nowplaying"`
}

type trackDate struct {
	UTS string `json:"uts"`
}

func (d *trackDate) unix() int64 {
	if d == nil {
		return 0
	}
	uts, _ := strconv.ParseInt(d.UTS, 10, 64)
	return uts
}

// artistName absorbs both shapes the API serves: a plain string and an
// object with a "#text" member. The object's text wins when both decode.
type artistName struct {
	Name string
}

func (a *artistName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Name = s
		return nil
	}
	var obj struct {
		Text string `json:"#text"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("artist is neither string nor object: %w", err)
	}
	if obj.Text != "" {
		a.Name = obj.Text
	} else {
		a.Name = obj.Name
	}
	return nil
}

// textField is the API's common {"#text": ...} wrapper.
type textField struct {
	Text string `json:"#text"`
}

func (f *textField) UnmarshalJSON(data []byte) error {
	var obj struct {
		Text string `json:"#text"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		f.Text = obj.Text
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	f.Text = s
	return nil
}

// Client fetches a user's most recent scrobble.
type Client struct {
	http    *httpclient.Client
	baseURL string
	apiKey  string
}

func NewClient(apiKey string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		http:    httpclient.New(timeout, log),
		baseURL: apiBaseURL,
		apiKey:  apiKey,
	}
}

// SetBaseURL points the client at a different host, used in tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// FetchRecentTrack returns the user's most recent track, or nil when the
// account has no scrobbles.
func (c *Client) FetchRecentTrack(ctx context.Context, username string) (*track, error) {
	params := url.Values{}
	params.Set("method", "user.getrecenttracks")
	params.Set("user", username)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", "1")

	var resp recentTracksResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.RecentTracks.Track) == 0 {
		return nil, nil
	}
	return &resp.RecentTracks.Track[0], nil
}
