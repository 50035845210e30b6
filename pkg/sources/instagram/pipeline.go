// Package instagram syncs a user's Instagram feed: simplified post records
// to a JSON document and every referenced image to the photo directory.
package instagram

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

const documentName = "instagram.json"

// document is the persisted shape: a full replacement every run.
type document struct {
	Items []models.MediaItem `json:"items"`
}

// Pipeline implements the Instagram sync.
type Pipeline struct {
	cfg    config.InstagramConfig
	client *Client
	docs   *storage.Manager
	pool   *downloader.Pool
	log    logger.Logger
}

func NewPipeline(cfg config.InstagramConfig, client *Client, docs *storage.Manager, pool *downloader.Pool, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		client: client,
		docs:   docs,
		pool:   pool,
		log:    log,
	}
}

func (p *Pipeline) Name() string { return "instagram" }

// Sync fetches the feed, transforms it to MediaItems, persists the JSON
// document, and downloads every referenced image not yet on disk.
func (p *Pipeline) Sync(ctx context.Context) (*syncer.Result, error) {
	raw, err := p.client.FetchFeed(ctx, p.cfg.UserID, p.cfg.Count)
	if err != nil {
		return nil, fmt.Errorf("fetching instagram feed: %w", err)
	}

	items := transformItems(raw)
	p.log.WithFields(map[string]interface{}{
		"fetched":     len(raw),
		"transformed": len(items),
	}).Debug("instagram feed transformed")

	if err := p.docs.WriteDocument(documentName, document{Items: items}); err != nil {
		return nil, fmt.Errorf("persisting instagram document: %w", err)
	}

	jobs := downloadJobs(items)
	stats := p.pool.Run(ctx, jobs)
	if stats.Failed > 0 {
		return nil, fmt.Errorf("instagram image downloads failed: %d of %d", stats.Failed, len(jobs))
	}

	return &syncer.Result{Items: len(items), Skipped: stats.Skipped}, nil
}

// transformItems reduces raw feed items to the persisted record shape.
// Items with no resolvable image are dropped.
func transformItems(raw []feedItem) []models.MediaItem {
	items := make([]models.MediaItem, 0, len(raw))
	for _, item := range raw {
		media, ok := transformItem(item)
		if !ok {
			continue
		}
		items = append(items, media)
	}
	return items
}

// transformItem extracts the first image candidate, looking through the
// carousel when the post has no top-level image.
func transformItem(item feedItem) (models.MediaItem, bool) {
	media := models.MediaItem{
		ID:        itemID(item),
		Timestamp: item.TakenAt,
	}
	if item.Caption != nil {
		media.Caption = item.Caption.Text
	}

	for _, ci := range item.CarouselMedia {
		if img, ok := firstCandidate(ci.ImageVersions); ok {
			media.Carousel = append(media.Carousel, img)
		}
	}

	if img, ok := firstCandidate(item.ImageVersions); ok {
		media.Image = img
	} else if len(media.Carousel) > 0 {
		media.Image = media.Carousel[0]
	} else {
		return models.MediaItem{}, false
	}
	return media, true
}

func itemID(item feedItem) string {
	if item.ID != "" {
		return item.ID
	}
	return fmt.Sprintf("%d", item.PK)
}

func firstCandidate(iv *imageVersions) (models.Image, bool) {
	if iv == nil || len(iv.Candidates) == 0 {
		return models.Image{}, false
	}
	c := iv.Candidates[0]
	if c.URL == "" {
		return models.Image{}, false
	}
	return models.Image{URL: c.URL, Width: c.Width, Height: c.Height}, true
}

// downloadJobs collects one job per distinct image URL across posts and
// carousels.
func downloadJobs(items []models.MediaItem) []downloader.Job {
	var jobs []downloader.Job
	seen := make(map[string]bool)
	add := func(img models.Image) {
		if img.URL == "" || seen[img.URL] {
			return
		}
		seen[img.URL] = true
		jobs = append(jobs, downloader.Job{
			URL:      img.URL,
			Filename: storage.FilenameFromURL(img.URL),
			Source:   "instagram",
		})
	}

	for _, item := range items {
		add(item.Image)
		for _, img := range item.Carousel {
			add(img)
		}
	}
	return jobs
}
