package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-writer/internal/config"
	"github.com/jonathan/resume-writer/internal/db"
	"github.com/jonathan/resume-writer/internal/usage"
)

var usageRecent int

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Print token usage recorded in the usage journal",
	Long:  "Read the token_usage table at DATABASE_URL and print per-user totals and the most recent completions as JSON.",
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().IntVar(&usageRecent, "recent", 20, "Number of recent completions to include (0 to omit)")
	rootCmd.AddCommand(usageCmd)
}

// usageReport is the JSON document printed by the usage command.
type usageReport struct {
	Users  []usage.UserTotal `json:"users"`
	Recent []usage.Entry     `json:"recent,omitempty"`
}

func runUsage(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required to read the usage journal")
	}

	ctx := cmd.Context()
	database, err := openJournalDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open usage journal: %w", err)
	}
	defer database.Close()

	return writeUsageReport(ctx, cmd.OutOrStdout(), db.NewUsageJournal(database), usageRecent)
}

func writeUsageReport(ctx context.Context, out io.Writer, reporter usage.Reporter, recent int) error {
	users, err := reporter.ByUser(ctx)
	if err != nil {
		return err
	}
	report := usageReport{Users: users}
	if report.Users == nil {
		report.Users = []usage.UserTotal{}
	}

	if recent > 0 {
		report.Recent, err = reporter.Recent(ctx, recent)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
