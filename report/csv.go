// Package report renders the pipeline result as CSV, HTML, and a console
// summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/agentgap/agentgap/types"
)

var csvHeader = []string{
	"Asset ID", "Name", "Cloud Provider", "Account ID", "Account Alias",
	"Region", "Instance ID", "Instance Type", "Private IP", "Public IP",
	"State", "Source", "Created", "Last Updated", "Tags",
}

// WriteCSV renders the asset list as CSV.
func WriteCSV(w io.Writer, assets []types.Asset) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, a := range assets {
		tags := ""
		if len(a.Tags) > 0 {
			data, err := json.Marshal(a.Tags)
			if err != nil {
				return fmt.Errorf("failed to encode tags for asset %s: %w", a.AssetID, err)
			}
			tags = string(data)
		}

		row := []string{
			a.AssetID, a.Name, string(a.CloudProvider), a.AccountID, a.AccountAlias,
			a.Region, a.InstanceID, a.InstanceType, a.PrivateIP, a.PublicIP,
			string(a.State), string(a.Source),
			a.CreatedAt.UTC().Format(time.RFC3339),
			a.UpdatedAt.UTC().Format(time.RFC3339),
			tags,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes the CSV report to path.
func WriteCSVFile(path string, assets []types.Asset) error {
	f, err := os.Create(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return fmt.Errorf("failed to create CSV report: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteCSV(f, assets); err != nil {
		return err
	}
	return f.Close()
}
