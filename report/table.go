package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/agentgap/agentgap/pipeline"
	"github.com/agentgap/agentgap/types"
)

// WriteSummaryTable prints the run summary to the console.
func WriteSummaryTable(w io.Writer, result *pipeline.Result) {
	bold := color.New(color.Bold)
	warn := color.New(color.FgYellow)

	_, _ = bold.Fprintf(w, "\n%d cloud VMs without agent\n\n", result.Summary.TotalIncluded)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Account", "Region", "Instance", "Type", "State", "Source", "Name"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, a := range result.Assets {
		table.Append([]string{
			a.AccountLabel(), a.Region, a.InstanceID, a.InstanceType,
			string(a.State), string(a.Source), a.Name,
		})
	}
	table.Render()

	fmt.Fprintf(w, "\nAccounts: %d  Regions: %d  Elapsed: %s\n",
		result.Summary.DistinctAccounts, result.Summary.DistinctRegions,
		result.Elapsed.Round(10*time.Millisecond))

	if sources := sourceBreakdown(result.Summary); sources != "" {
		fmt.Fprintf(w, "Sources: %s\n", sources)
	}
	if result.Summary.SkippedRecords > 0 {
		_, _ = warn.Fprintf(w, "Skipped %d malformed records\n", result.Summary.SkippedRecords)
	}
}

func sourceBreakdown(summary types.RunSummary) string {
	keys := make([]string, 0, len(summary.BySource))
	for source := range summary.BySource {
		keys = append(keys, string(source))
	}
	sort.Strings(keys)

	out := ""
	for i, key := range keys {
		if i > 0 {
			out += "  "
		}
		out += fmt.Sprintf("%s=%d", key, summary.BySource[types.AssetSource(key)])
	}
	return out
}
