package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/agentgap/agentgap/config"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List known platform codes and their API hosts",
	Run: func(cmd *cobra.Command, args []string) {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Code", "Gateway", "API"})
		table.SetBorder(false)

		for _, code := range config.PlatformCodes() {
			plat, _ := config.LookupPlatform(code)
			table.Append([]string{plat.Code, plat.Gateway, plat.API})
		}
		table.Render()
	},
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}
