// Package lastfm syncs the most recent Last.fm scrobble into a snapshot
// document and optionally into a Gist file.
package lastfm

import (
	"context"
	"fmt"
	"time"

	"profilesync/pkg/config"
	"profilesync/pkg/format"
	"profilesync/pkg/logger"
	"profilesync/pkg/models"
	"profilesync/pkg/storage"
	"profilesync/pkg/syncer"
)

const (
	documentName = "lastfm.json"
	gistFilename = "🎵 Recently played"
)

// gistPublisher is the slice of the gist client this pipeline needs.
type gistPublisher interface {
	Update(ctx context.Context, gistID, filename, content string) error
}

// Pipeline implements the Last.fm sync.
type Pipeline struct {
	cfg    config.LastfmConfig
	client *Client
	docs   *storage.Manager
	gists  gistPublisher
	log    logger.Logger
	now    func() time.Time
}

func NewPipeline(cfg config.LastfmConfig, client *Client, docs *storage.Manager, gists gistPublisher, log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		client: client,
		docs:   docs,
		gists:  gists,
		log:    log,
		now:    time.Now,
	}
}

func (p *Pipeline) Name() string { return "lastfm" }

// Sync fetches the latest scrobble, overwrites the snapshot document, and
// pushes a one-line summary to the configured Gist.
func (p *Pipeline) Sync(ctx context.Context) (*syncer.Result, error) {
	t, err := p.client.FetchRecentTrack(ctx, p.cfg.Username)
	if err != nil {
		return nil, fmt.Errorf("fetching recent track: %w", err)
	}
	if t == nil {
		p.log.WithField("username", p.cfg.Username).Warn("no scrobbles found")
		return &syncer.Result{}, nil
	}

	snapshot := transformTrack(t, p.now())
	if err := p.docs.WriteDocument(documentName, snapshot); err != nil {
		return nil, fmt.Errorf("persisting track snapshot: %w", err)
	}

	if p.cfg.GistID != "" && p.gists != nil {
		if err := p.gists.Update(ctx, p.cfg.GistID, gistFilename, gistContent(snapshot)); err != nil {
			return nil, fmt.Errorf("updating lastfm gist: %w", err)
		}
	}

	return &syncer.Result{Items: 1}, nil
}

// transformTrack reduces a raw track to the persisted snapshot shape.
func transformTrack(t *track, now time.Time) models.TrackSnapshot {
	snapshot := models.TrackSnapshot{
		Artist: t.Artist.Name,
		Track:  t.Name,
		Album:  t.Album.Text,
	}
	if t.Attr != nil && t.Attr.NowPlaying == "true" {
		snapshot.NowPlaying = true
		return snapshot
	}
	if uts := t.Date.unix(); uts > 0 {
		snapshot.PlayedAt = uts
		snapshot.Ago = format.RelativeTime(time.Unix(uts, 0), now)
	}
	return snapshot
}

func gistContent(s models.TrackSnapshot) string {
	line := fmt.Sprintf("%s - %s", s.Artist, s.Track)
	if s.NowPlaying {
		return line + " (now playing)"
	}
	if s.Ago != "" {
		return fmt.Sprintf("%s (%s)", line, s.Ago)
	}
	return line
}
