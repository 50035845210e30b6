// Package gist updates GitHub Gists that act as small publish targets for
// generated snapshot content.
package gist

import (
	"context"
	"fmt"
	"sort"
	"time"

	"profilesync/pkg/errors"
	"profilesync/pkg/httpclient"
	"profilesync/pkg/logger"
)

const defaultBaseURL = "https://api.github.com"

// File is a single file inside a gist.
type File struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Gist is the subset of the GitHub gist payload the client works with.
type Gist struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Files       map[string]File `json:"files"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FirstFilename returns the gist's first file key in lexicographic order.
// GitHub serves files as a JSON object, so "first" has to be defined by
// sorting rather than by response order.
func (g *Gist) FirstFilename() string {
	if len(g.Files) == 0 {
		return ""
	}
	keys := make([]string, 0, len(g.Files))
	for k := range g.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}

// Client talks to the GitHub Gists API with a personal access token.
type Client struct {
	http    *httpclient.Client
	baseURL string
	log     logger.Logger
}

func NewClient(token string, timeout time.Duration, log logger.Logger) *Client {
	hc := httpclient.New(timeout, log)
	hc.SetHeader("Authorization", "token "+token)
	hc.SetHeader("Accept", "application/vnd.github+json")
	return &Client{http: hc, baseURL: defaultBaseURL, log: log}
}

// SetBaseURL points the client at a different API host, used in tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Get fetches a gist by ID.
func (c *Client) Get(ctx context.Context, gistID string) (*Gist, error) {
	if gistID == "" {
		return nil, errors.New(errors.ErrorTypeConfig, 0, "gist ID is required")
	}
	var g Gist
	url := fmt.Sprintf("%s/gists/%s", c.baseURL, gistID)
	if err := c.http.GetJSON(ctx, url, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Update replaces the content of the gist's first file and retitles it to
// filename. The original file key is kept as the update key so GitHub
// renames the file instead of adding a second one.
func (c *Client) Update(ctx context.Context, gistID, filename, content string) error {
	g, err := c.Get(ctx, gistID)
	if err != nil {
		return err
	}
	key := g.FirstFilename()
	if key == "" {
		return errors.New(errors.ErrorTypeParsing, 0, "gist %s has no files to update", gistID)
	}

	if existing, ok := g.Files[key]; ok && existing.Filename == filename && existing.Content == content {
		c.log.WithFields(map[string]interface{}{
			"gist_id":  gistID,
			"filename": filename,
		}).Debug("gist content unchanged, skipping update")
		return nil
	}

	body := map[string]interface{}{
		"files": map[string]File{
			key: {Filename: filename, Content: content},
		},
	}
	url := fmt.Sprintf("%s/gists/%s", c.baseURL, gistID)
	if err := c.http.PatchJSON(ctx, url, body, nil); err != nil {
		return err
	}
	c.log.WithFields(map[string]interface{}{
		"gist_id":  gistID,
		"filename": filename,
		"bytes":    len(content),
	}).Info("gist updated")
	return nil
}
