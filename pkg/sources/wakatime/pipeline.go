// Package wakatime syncs the weekly WakaTime language breakdown into a
// snapshot document and renders it as a bar chart in a Gist file.
package wakatime

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"profilesync/pkg/config"
	"profilesync/pkg/format"
	"profilesync/pkg/logger"
	"profilesync/pkg/models"
	"profilesync/pkg/storage"
	"profilesync/pkg/syncer"
)

const (
	documentName = "wakatime.json"
	gistFilename = "📊 Weekly development breakdown"
)

type gistPublisher interface {
	Update(ctx context.Context, gistID, filename, content string) error
}

// Pipeline implements the WakaTime sync.
type Pipeline struct {
	cfg    config.WakaTimeConfig
	client *Client
	docs   *storage.Manager
	gists  gistPublisher
	log    logger.Logger
	now    func() time.Time
}

func NewPipeline(cfg config.WakaTimeConfig, client *Client, docs *storage.Manager, gists gistPublisher, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		client: client,
		docs:   docs,
		gists:  gists,
		log:    log,
		now:    time.Now,
	}
}

func (p *Pipeline) Name() string { return "wakatime" }

// Sync fetches the weekly stats, overwrites the snapshot document, and
// pushes the rendered chart to the configured Gist.
func (p *Pipeline) Sync(ctx context.Context) (*syncer.Result, error) {
	resp, err := p.client.FetchStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching wakatime stats: %w", err)
	}

	stats := transformStats(resp, p.cfg.MaxRows, p.now())
	if err := p.docs.WriteDocument(documentName, stats); err != nil {
		return nil, fmt.Errorf("persisting wakatime snapshot: %w", err)
	}

	if p.cfg.GistID != "" && p.gists != nil {
		content := renderChart(stats.Languages, p.cfg.BarSize)
		if err := p.gists.Update(ctx, p.cfg.GistID, gistFilename, content); err != nil {
			return nil, fmt.Errorf("updating wakatime gist: %w", err)
		}
	}

	return &syncer.Result{Items: len(stats.Languages)}, nil
}

// transformStats keeps the top maxRows languages in API order, which is
// already sorted by share.
func transformStats(resp *statsResponse, maxRows int, now time.Time) models.CodingStats {
	langs := resp.Data.Languages
	if maxRows > 0 && len(langs) > maxRows {
		langs = langs[:maxRows]
	}

	stats := models.CodingStats{
		Range:     resp.Data.HumanReadableRange,
		Languages: make([]models.LanguageStat, 0, len(langs)),
		FetchedAt: now.Unix(),
	}
	for _, l := range langs {
		stats.Languages = append(stats.Languages, models.LanguageStat{
			Name:    l.Name,
			Percent: l.Percent,
			Text:    l.Text,
		})
	}
	return stats
}

// renderChart renders one aligned line per language:
//
//	Go         2 hrs 13 mins   █████████████▓░░░░░░░   63.2%
func renderChart(langs []models.LanguageStat, barSize int) string {
	nameWidth, textWidth := 0, 0
	for _, l := range langs {
		if n := utf8.RuneCountInString(l.Name); n > nameWidth {
			nameWidth = n
		}
		if n := utf8.RuneCountInString(l.Text); n > textWidth {
			textWidth = n
		}
	}

	var b strings.Builder
	for _, l := range langs {
		fmt.Fprintf(&b, "%-*s %-*s %s %5.1f%%\n",
			nameWidth, l.Name,
			textWidth, l.Text,
			format.Bar(l.Percent, barSize),
			l.Percent)
	}
	return b.String()
}
