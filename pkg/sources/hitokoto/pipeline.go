// Package hitokoto syncs a random quote into a snapshot document and
// optionally a Gist file. Endpoint variants are tried in order so a
// blocked region falls through to the international mirror.
package hitokoto

import (
	"context"
	"fmt"
	"time"

	"profilesync/pkg/config"
	"profilesync/pkg/format"
	"profilesync/pkg/httpclient"
	"profilesync/pkg/logger"
	"profilesync/pkg/models"
	"profilesync/pkg/storage"
	"profilesync/pkg/syncer"
)

const (
	documentName = "hitokoto.json"
	gistFilename = "💬 One sentence"
)

// quoteResponse is the raw API shape. From and FromWho are both optional;
// FromWho (the person) takes precedence over From (the work) when both
// are present.
type quoteResponse struct {
	ID       int    `json:"id"`
	Hitokoto string `json:"hitokoto"`
	From     string `json:"from"`
	FromWho  string `json:"from_who"`
}

type gistPublisher interface {
	Update(ctx context.Context, gistID, filename, content string) error
}

// Pipeline implements the Hitokoto sync.
type Pipeline struct {
	cfg   config.HitokotoConfig
	http  *httpclient.Client
	docs  *storage.Manager
	gists gistPublisher
	log   logger.Logger
	now   func() time.Time
}

func NewPipeline(cfg config.HitokotoConfig, http *httpclient.Client, docs *storage.Manager, gists gistPublisher, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		http:  http,
		docs:  docs,
		gists: gists,
		log:   log,
		now:   time.Now,
	}
}

func (p *Pipeline) Name() string { return "hitokoto" }

// Sync fetches one quote through the endpoint fallback chain, overwrites
// the snapshot document, and pushes the quote to the configured Gist.
func (p *Pipeline) Sync(ctx context.Context) (*syncer.Result, error) {
	var raw quoteResponse
	if err := p.http.GetJSONFallback(ctx, p.cfg.Endpoints, &raw); err != nil {
		return nil, fmt.Errorf("fetching quote: %w", err)
	}

	snapshot := transformQuote(raw, p.cfg.MaxLength, p.now())
	if err := p.docs.WriteDocument(documentName, snapshot); err != nil {
		return nil, fmt.Errorf("persisting quote snapshot: %w", err)
	}

	if p.cfg.GistID != "" && p.gists != nil {
		if err := p.gists.Update(ctx, p.cfg.GistID, gistFilename, gistContent(snapshot)); err != nil {
			return nil, fmt.Errorf("updating hitokoto gist: %w", err)
		}
	}

	return &syncer.Result{Items: 1}, nil
}

// transformQuote applies the source precedence and the display length
// budget.
func transformQuote(raw quoteResponse, maxLength int, now time.Time) models.QuoteSnapshot {
	return models.QuoteSnapshot{
		ID:        raw.ID,
		Text:      format.Truncate(raw.Hitokoto, maxLength),
		Source:    format.FirstNonEmpty(raw.FromWho, raw.From),
		FetchedAt: now.Unix(),
	}
}

func gistContent(s models.QuoteSnapshot) string {
	if s.Source == "" {
		return s.Text
	}
	return fmt.Sprintf("%s // %s", s.Text, s.Source)
}
