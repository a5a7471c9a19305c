package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "1.2.0"
	rootCmd = &cobra.Command{
		Use:   "agentgap",
		Short: "Find cloud VMs without the security agent",
		Long: `Agentgap - Cloud Agent Coverage Reporter

Agentgap queries the Qualys platform for cloud VMs across AWS, Azure,
and GCP, filters out instances that already run the cloud agent, and
produces CSV and HTML reports of the remaining coverage gap with
account attribution.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Agentgap {{.Version}} - Cloud Agent Coverage Reporter
`)
}
