// Package vsco syncs a VSCO profile gallery: simplified post records to a
// JSON document and the gallery images to the photo directory.
package vsco

import (
	"context"
	"fmt"

	"profilesync/internal/downloader"
	"profilesync/pkg/config"
	"profilesync/pkg/logger"
	"profilesync/pkg/models"
	"profilesync/pkg/storage"
	"profilesync/pkg/syncer"
)

const documentName = "vsco.json"

type document struct {
	Items []models.MediaItem `json:"items"`
}

// Pipeline implements the VSCO sync.
type Pipeline struct {
	cfg    config.VSCOConfig
	client *Client
	docs   *storage.Manager
	pool   *downloader.Pool
	log    logger.Logger
}

func NewPipeline(cfg config.VSCOConfig, client *Client, docs *storage.Manager, pool *downloader.Pool, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		client: client,
		docs:   docs,
		pool:   pool,
		log:    log,
	}
}

func (p *Pipeline) Name() string { return "vsco" }

// Sync resolves the site ID, fetches the gallery, persists the document,
// and downloads any missing images.
func (p *Pipeline) Sync(ctx context.Context) (*syncer.Result, error) {
	siteID, err := p.client.ResolveSiteID(ctx, p.cfg.Username)
	if err != nil {
		return nil, fmt.Errorf("resolving vsco site for %q: %w", p.cfg.Username, err)
	}
	p.log.WithFields(map[string]interface{}{
		"username": p.cfg.Username,
		"site_id":  siteID,
	}).Debug("vsco site resolved")

	raw, err := p.client.FetchMedias(ctx, siteID, p.cfg.Count)
	if err != nil {
		return nil, fmt.Errorf("fetching vsco gallery: %w", err)
	}

	items := transformMedias(raw)
	if err := p.docs.WriteDocument(documentName, document{Items: items}); err != nil {
		return nil, fmt.Errorf("persisting vsco document: %w", err)
	}

	jobs := make([]downloader.Job, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, downloader.Job{
			URL:      item.Image.URL,
			Filename: storage.FilenameFromURL(item.Image.URL),
			Source:   "vsco",
		})
	}
	stats := p.pool.Run(ctx, jobs)
	if stats.Failed > 0 {
		return nil, fmt.Errorf("vsco image downloads failed: %d of %d", stats.Failed, len(jobs))
	}

	return &syncer.Result{Items: len(items), Skipped: stats.Skipped}, nil
}

// transformMedias reduces gallery entries to MediaItems. Videos and
// entries without an image URL are dropped. Upload dates arrive in
// milliseconds.
func transformMedias(raw []mediaItem) []models.MediaItem {
	items := make([]models.MediaItem, 0, len(raw))
	for _, m := range raw {
		if m.IsVideo {
			continue
		}
		url := m.imageURL()
		if url == "" {
			continue
		}
		items = append(items, models.MediaItem{
			ID:        m.ID,
			Timestamp: m.UploadDate / 1000,
			Caption:   m.Description,
			Image: models.Image{
				URL:    url,
				Width:  m.Width,
				Height: m.Height,
			},
		})
	}
	return items
}
