package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"profilesync/pkg/format"
	"profilesync/pkg/syncstate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last run of each source",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	state, err := syncstate.NewStore("")
	if err != nil {
		return fmt.Errorf("opening sync state: %w", err)
	}

	records := state.All()
	if len(records) == 0 {
		fmt.Println("No sync runs recorded yet.")
		return nil
	}

	now := time.Now()
	fmt.Printf("%-12s %-9s %-16s %8s %8s  %s\n", "SOURCE", "STATUS", "LAST RUN", "ITEMS", "SKIPPED", "ERROR")
	for _, rec := range records {
		errMsg := rec.Error
		if errMsg == "" {
			errMsg = "-"
		}
		fmt.Printf("%-12s %-9s %-16s %8d %8d  %s\n",
			rec.Source,
			rec.Status,
			format.RelativeTime(rec.LastRun, now),
			rec.Items,
			rec.Skipped,
			format.Truncate(errMsg, 60),
		)
	}
	return nil
}
