package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"profilesync/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and bootstrap configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration after merging defaults, the config
file, .env files, environment variables, and flags. Secrets are masked.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter configuration file",
	Long: `Write a configuration file with defaults and every source disabled.
The default path is .profilesync.yaml in the working directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadUnvalidated(configFile, globalFlags())
	if err != nil {
		return err
	}

	masked := *cfg
	masked.Instagram.SessionID = mask(cfg.Instagram.SessionID)
	masked.Instagram.CSRFToken = mask(cfg.Instagram.CSRFToken)
	masked.NeoDB.Token = mask(cfg.NeoDB.Token)
	masked.Lastfm.APIKey = mask(cfg.Lastfm.APIKey)
	masked.WakaTime.APIKey = mask(cfg.WakaTime.APIKey)
	masked.Gist.Token = mask(cfg.Gist.Token)

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := ".profilesync.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

// mask hides a secret while leaving enough to recognize which one is set.
func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
