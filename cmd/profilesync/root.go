package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information, overridable at build time.
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	dataDir    string
	photosDir  string
	concurrent int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "profilesync",
	Short: "Sync profile data from social and media APIs to files and Gists",
	Long: `profilesync polls a set of third-party APIs (Instagram, VSCO, NeoDB,
Last.fm, WakaTime, Hitokoto) and persists simplified snapshots for a
personal website: JSON documents, a photo directory, and GitHub Gists.

Each source is an independent fetch, transform, persist pipeline. Runs
are idempotent: documents are fully replaced, images are downloaded only
once, and an unchanged NeoDB shelf is skipped entirely.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .profilesync.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for JSON documents")
	rootCmd.PersistentFlags().StringVar(&photosDir, "photos-dir", "", "directory for downloaded images")
	rootCmd.PersistentFlags().IntVar(&concurrent, "concurrent", 0, "concurrent image downloads")

	rootCmd.SetVersionTemplate(`profilesync {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flag values for config merging.
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if photosDir != "" {
		flags["photos-dir"] = photosDir
	}
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}
