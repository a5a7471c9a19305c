package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/agentgap/agentgap/config"
	"github.com/agentgap/agentgap/journal"
)

var (
	runsLimit   int
	runsDataDir string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent scan runs from the local journal",
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "Number of runs to show")
	runsCmd.Flags().StringVar(&runsDataDir, "data-dir", "", "Journal directory")
}

func runRuns(cmd *cobra.Command, args []string) error {
	dir := runsDataDir
	if dir == "" {
		cfg := &config.Config{}
		cfg.ApplyDefaults()
		dir = cfg.DataDir
	}

	j, err := journal.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	entries, err := j.Recent(runsLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seq", "Finished", "Platform", "Cloud", "Included", "Accounts", "Skipped"})
	table.SetBorder(false)

	for _, e := range entries {
		table.Append([]string{
			fmt.Sprintf("%d", e.Sequence),
			e.FinishedAt.Format("2006-01-02 15:04:05"),
			e.Platform,
			string(e.Cloud),
			fmt.Sprintf("%d", e.Summary.TotalIncluded),
			fmt.Sprintf("%d", e.Summary.DistinctAccounts),
			fmt.Sprintf("%d", e.Summary.SkippedRecords),
		})
	}
	table.Render()
	return nil
}
