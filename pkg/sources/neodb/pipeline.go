// Package neodb syncs a user's NeoDB shelves into per-category JSON
// catalogs. A category whose remote count matches the local catalog is
// skipped without re-fetching its pages.
package neodb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"profilesync/pkg/config"
	"profilesync/pkg/logger"
	"profilesync/pkg/models"
	"profilesync/pkg/storage"
	"profilesync/pkg/syncer"
)

type document struct {
	Entries []models.CatalogEntry `json:"entries"`
}

// Pipeline implements the NeoDB shelf sync.
type Pipeline struct {
	cfg    config.NeoDBConfig
	client *Client
	docs   *storage.Manager
	log    logger.Logger
}

func NewPipeline(cfg config.NeoDBConfig, client *Client, docs *storage.Manager, log logger.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, client: client, docs: docs, log: log}
}

func (p *Pipeline) Name() string { return "neodb" }

func documentName(category string) string {
	return filepath.Join("neodb", category+".json")
}

// Sync runs every configured category. Items counts entries written;
// Skipped counts categories passed over by the count check.
func (p *Pipeline) Sync(ctx context.Context) (*syncer.Result, error) {
	result := &syncer.Result{}
	for _, category := range p.cfg.Categories {
		written, skipped, err := p.syncCategory(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("syncing neodb category %q: %w", category, err)
		}
		result.Items += written
		if skipped {
			result.Skipped++
		}
	}
	return result, nil
}

// syncCategory fetches page 1 for the remote count, compares it against
// the persisted catalog, and on a mismatch fans out over the remaining
// pages, merges, sorts, dedupes, and rewrites the catalog.
func (p *Pipeline) syncCategory(ctx context.Context, category string) (int, bool, error) {
	first, err := p.client.FetchShelfPage(ctx, category, 1)
	if err != nil {
		return 0, false, err
	}

	local, err := p.localCount(category)
	if err != nil {
		return 0, false, err
	}
	if local == first.Count {
		p.log.WithFields(map[string]interface{}{
			"category": category,
			"count":    local,
		}).Info("catalog unchanged, skipping category")
		return 0, true, nil
	}

	marks := append([]shelfMark(nil), first.Data...)
	if first.Pages > 1 {
		rest, err := p.fetchRemainingPages(ctx, category, first.Pages)
		if err != nil {
			return 0, false, err
		}
		marks = append(marks, rest...)
	}

	entries := mergeMarks(marks, category)
	if err := p.docs.WriteDocument(documentName(category), document{Entries: entries}); err != nil {
		return 0, false, err
	}

	p.log.WithFields(map[string]interface{}{
		"category": category,
		"entries":  len(entries),
		"pages":    first.Pages,
	}).Debug("catalog rewritten")
	return len(entries), false, nil
}

// fetchRemainingPages fans out over pages 2..pages concurrently.
func (p *Pipeline) fetchRemainingPages(ctx context.Context, category string, pages int) ([]shelfMark, error) {
	results := make([][]shelfMark, pages+1)

	g, ctx := errgroup.WithContext(ctx)
	for page := 2; page <= pages; page++ {
		page := page
		g.Go(func() error {
			resp, err := p.client.FetchShelfPage(ctx, category, page)
			if err != nil {
				return err
			}
			results[page] = resp.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var marks []shelfMark
	for page := 2; page <= pages; page++ {
		marks = append(marks, results[page]...)
	}
	return marks, nil
}

// localCount reads the persisted catalog's entry count. A missing document
// counts as zero so the first run always fetches.
func (p *Pipeline) localCount(category string) (int, error) {
	var doc document
	if err := p.docs.ReadDocument(documentName(category), &doc); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return len(doc.Entries), nil
}

// mergeMarks transforms shelf marks into catalog entries, sorts them by
// created time descending, and keeps the first occurrence of each uuid.
func mergeMarks(marks []shelfMark, category string) []models.CatalogEntry {
	entries := make([]models.CatalogEntry, 0, len(marks))
	for _, m := range marks {
		if m.Item.UUID == "" {
			continue
		}
		rating := m.RatingGrade
		if rating == 0 {
			rating = m.Item.Rating
		}
		cat := m.Item.Category
		if cat == "" {
			cat = category
		}
		entries = append(entries, models.CatalogEntry{
			UUID:          m.Item.UUID,
			Title:         m.Item.Title,
			Category:      cat,
			Rating:        rating,
			CoverImageURL: m.Item.CoverURL,
			CreatedTime:   m.CreatedTime,
		})
	}

	// RFC 3339 strings order correctly as strings.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedTime > entries[j].CreatedTime
	})

	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if seen[e.UUID] {
			continue
		}
		seen[e.UUID] = true
		out = append(out, e)
	}
	return out
}
