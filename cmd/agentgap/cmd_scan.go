package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentgap/agentgap/config"
	"github.com/agentgap/agentgap/journal"
	"github.com/agentgap/agentgap/pipeline"
	"github.com/agentgap/agentgap/qualys"
	"github.com/agentgap/agentgap/report"
	"github.com/agentgap/agentgap/telemetry"
	"github.com/agentgap/agentgap/types"
)

var (
	scanConfigFile   string
	scanUsername     string
	scanPassword     string
	scanPlatform     string
	scanCloud        string
	scanCreatedHours int
	scanUpdatedHours int
	scanAccountMap   string
	scanOutput       string
	scanLogLevel     string
	scanNoJournal    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Inventory cloud VMs without the agent and write reports",
	Long: `Scan queries the platform's host asset inventory for one cloud
provider, drops instances that already run the agent, terminated
instances, and records without account attribution, resolves account
aliases, and writes CSV and HTML reports.`,
	Example: `  agentgap scan -u USER -p PASS -P US2
  agentgap scan -u USER -p PASS -P CA1 --created-hours 24
  agentgap scan -u USER -p PASS -P EU1 --cloud AZURE
  agentgap scan -u USER -p PASS -P US2 --account-map accounts.json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanConfigFile, "config", "", "Optional YAML config file")
	scanCmd.Flags().StringVarP(&scanUsername, "username", "u", "", "Platform username")
	scanCmd.Flags().StringVarP(&scanPassword, "password", "p", "", "Platform password")
	scanCmd.Flags().StringVarP(&scanPlatform, "platform", "P", "", "Platform code (see 'agentgap platforms')")
	scanCmd.Flags().StringVarP(&scanCloud, "cloud", "c", "AWS", "Cloud provider: AWS, AZURE, GCP")
	scanCmd.Flags().IntVar(&scanCreatedHours, "created-hours", 0, "Only include assets created in the last N hours")
	scanCmd.Flags().IntVar(&scanUpdatedHours, "updated-hours", 0, "Only include assets updated in the last N hours")
	scanCmd.Flags().StringVar(&scanAccountMap, "account-map", "", "JSON file mapping account IDs to aliases")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Output filename prefix")
	scanCmd.Flags().StringVar(&scanLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	scanCmd.Flags().BoolVar(&scanNoJournal, "no-journal", false, "Skip recording the run in the local journal")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := buildScanConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	telemetry.SetGlobalLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTEL := initTelemetry(ctx, cfg)
	defer shutdownOTEL()

	plat, err := config.LookupPlatform(cfg.Platform)
	if err != nil {
		return err
	}

	client := qualys.NewClient(cfg, plat)
	if err := client.Authenticate(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	query := qualys.SearchQuery{Cloud: cfg.Cloud}
	if cfg.CreatedCutoff() > 0 {
		query.CreatedAfter = now.Add(-cfg.CreatedCutoff())
	}
	if cfg.UpdatedCutoff() > 0 {
		query.UpdatedAfter = now.Add(-cfg.UpdatedCutoff())
	}

	result, err := pipeline.New(cfg, client.SearchHostAssets(query), client).Run(ctx)
	if err != nil {
		// no output files on a failed or cancelled run
		return err
	}

	report.WriteSummaryTable(os.Stdout, result)

	csvPath := cfg.OutputPrefix + ".csv"
	htmlPath := cfg.OutputPrefix + ".html"
	if err := report.WriteCSVFile(csvPath, result.Assets); err != nil {
		return err
	}
	if err := report.WriteHTMLFile(htmlPath, result, plat.Code); err != nil {
		return err
	}
	fmt.Printf("\nReports written: %s, %s\n", csvPath, htmlPath)

	if !scanNoJournal {
		recordRun(cfg, plat.Code, result)
	}
	return nil
}

// buildScanConfig merges the optional config file with command line flags;
// a flag set on the command line wins.
func buildScanConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}
	if scanConfigFile != "" {
		loaded, err := config.Load(scanConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if scanUsername != "" {
		cfg.Username = scanUsername
	}
	if scanPassword != "" {
		cfg.Password = scanPassword
	}
	if scanPlatform != "" {
		cfg.Platform = scanPlatform
	}
	if cmd.Flags().Changed("cloud") || cfg.Cloud == "" {
		cfg.Cloud = types.CloudProvider(scanCloud)
	}
	if cmd.Flags().Changed("created-hours") {
		cfg.CreatedHours = scanCreatedHours
	}
	if cmd.Flags().Changed("updated-hours") {
		cfg.UpdatedHours = scanUpdatedHours
	}
	if scanOutput != "" {
		cfg.OutputPrefix = scanOutput
	}
	if scanLogLevel != "" {
		cfg.Log.Level = scanLogLevel
	}
	cfg.ApplyDefaults()

	if scanAccountMap != "" {
		overrides, err := config.LoadAccountOverrides(scanAccountMap)
		if err != nil {
			return nil, err
		}
		cfg.AccountAliasOverrides = overrides
	}
	return cfg, nil
}

func recordRun(cfg *config.Config, platform string, result *pipeline.Result) {
	j, err := journal.Open(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to open run journal: %v\n", err)
		return
	}
	defer func() { _ = j.Close() }()

	_, err = j.Record(journal.Entry{
		StartedAt:  result.Started,
		FinishedAt: result.Started.Add(result.Elapsed),
		Platform:   platform,
		Cloud:      cfg.Cloud,
		Summary:    result.Summary,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
	}
}
