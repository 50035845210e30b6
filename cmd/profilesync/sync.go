package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"profilesync/internal/downloader"
	"profilesync/pkg/auth"
	"profilesync/pkg/config"
	"profilesync/pkg/gist"
	"profilesync/pkg/httpclient"
	"profilesync/pkg/logger"
	"profilesync/pkg/ratelimit"
	"profilesync/pkg/retry"
	"profilesync/pkg/sources/hitokoto"
	"profilesync/pkg/sources/instagram"
	"profilesync/pkg/sources/lastfm"
	"profilesync/pkg/sources/neodb"
	"profilesync/pkg/sources/vsco"
	"profilesync/pkg/sources/wakatime"
	"profilesync/pkg/storage"
	"profilesync/pkg/syncer"
	"profilesync/pkg/syncstate"
)

var syncAll bool

var syncCmd = &cobra.Command{
	Use:   "sync [sources...]",
	Short: "Run sync pipelines",
	Long: `Run the sync pipeline for the named sources, or for every enabled
source with --all. Sources run concurrently; a failing source does not
stop the others, but any failure makes the command exit non-zero.`,
	Example: `  # Sync everything enabled in the config
  profilesync sync --all

  # Sync selected sources
  profilesync sync neodb lastfm`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "sync all enabled sources")
}

func runSync(cmd *cobra.Command, args []string) error {
	if !syncAll && len(args) == 0 {
		return fmt.Errorf("name at least one source or pass --all")
	}

	cfg, err := config.LoadUnvalidated(configFile, globalFlags())
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	log := logger.GetLogger()

	fillCredentials(cfg, log)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	runner, err := buildRunner(cfg, log)
	if err != nil {
		return err
	}

	names := args
	if syncAll {
		names = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runner.Run(ctx, names)
}

// fillCredentials injects stored credentials into config slots left empty
// by the file and environment. Configured values always win.
func fillCredentials(cfg *config.Config, log logger.Logger) {
	manager, err := auth.NewManager(log)
	if err != nil {
		log.WithError(err).Debug("credential store unavailable")
		return
	}

	fill := func(source string, dst *string) {
		if *dst != "" {
			return
		}
		if cred, err := manager.Retrieve(source); err == nil {
			*dst = cred.Token
		}
	}

	fill("neodb", &cfg.NeoDB.Token)
	fill("lastfm", &cfg.Lastfm.APIKey)
	fill("wakatime", &cfg.WakaTime.APIKey)
	fill("gist", &cfg.Gist.Token)

	if cfg.Instagram.SessionID == "" {
		if cred, err := manager.Retrieve("instagram"); err == nil {
			cfg.Instagram.SessionID = cred.Token
			if cfg.Instagram.CSRFToken == "" {
				cfg.Instagram.CSRFToken = cred.Field("csrf_token")
			}
		}
	}
}

// buildRunner wires the enabled sources into a syncer.Runner.
func buildRunner(cfg *config.Config, log logger.Logger) (*syncer.Runner, error) {
	state, err := syncstate.NewStore("")
	if err != nil {
		return nil, fmt.Errorf("opening sync state: %w", err)
	}

	docs, err := storage.NewManager(cfg.Output.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("opening data directory: %w", err)
	}

	runner := syncer.NewRunner(state, log)

	var gists *gist.Client
	if cfg.Gist.Token != "" {
		gists = gist.NewClient(cfg.Gist.Token, cfg.HTTP.Timeout, log)
	}

	newPool := func(fetcher downloader.Fetcher, photos *storage.PhotoStore) *downloader.Pool {
		limiter := ratelimit.NewTokenBucket(cfg.Download.RequestsPerMinute, time.Minute)
		retryCfg := retry.DefaultConfig()
		retryCfg.MaxAttempts = cfg.Download.RetryAttempts
		retryCfg.Logger = log
		return downloader.NewPool(cfg.Download.ConcurrentDownloads, fetcher, photos, limiter, retryCfg, log)
	}

	needPhotos := cfg.Instagram.Enabled || cfg.VSCO.Enabled
	var photos *storage.PhotoStore
	if needPhotos {
		photos, err = storage.NewPhotoStore(cfg.Output.PhotosDirectory)
		if err != nil {
			return nil, fmt.Errorf("opening photos directory: %w", err)
		}
	}

	if cfg.Instagram.Enabled {
		client := instagram.NewClient(cfg.Instagram.SessionID, cfg.Instagram.CSRFToken, cfg.HTTP.UserAgent, cfg.HTTP.Timeout, log)
		pool := newPool(client.Downloader(), photos)
		runner.Register(instagram.NewPipeline(cfg.Instagram, client, docs, pool, log))
	}

	if cfg.VSCO.Enabled {
		client := vsco.NewClient(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, log)
		pool := newPool(client.Downloader(), photos)
		runner.Register(vsco.NewPipeline(cfg.VSCO, client, docs, pool, log))
	}

	if cfg.NeoDB.Enabled {
		client := neodb.NewClient(cfg.NeoDB.BaseURL, cfg.NeoDB.Token, cfg.HTTP.Timeout, log)
		runner.Register(neodb.NewPipeline(cfg.NeoDB, client, docs, log))
	}

	if cfg.Lastfm.Enabled {
		client := lastfm.NewClient(cfg.Lastfm.APIKey, cfg.HTTP.Timeout, log)
		runner.Register(lastfm.NewPipeline(cfg.Lastfm, client, docs, gists, log))
	}

	if cfg.WakaTime.Enabled {
		client := wakatime.NewClient(cfg.WakaTime.APIKey, cfg.HTTP.Timeout, log)
		runner.Register(wakatime.NewPipeline(cfg.WakaTime, client, docs, gists, log))
	}

	if cfg.Hitokoto.Enabled {
		client := httpclient.New(cfg.HTTP.Timeout, log)
		runner.Register(hitokoto.NewPipeline(cfg.Hitokoto, client, docs, gists, log))
	}

	if len(runner.Names()) == 0 {
		return nil, fmt.Errorf("no sources enabled; enable at least one in the config")
	}
	return runner, nil
}
