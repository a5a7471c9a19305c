package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgap/agentgap/alias"
	"github.com/agentgap/agentgap/pipeline"
	"github.com/agentgap/agentgap/types"
)

func sampleResult() *pipeline.Result {
	created := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	assets := []types.Asset{
		{
			AssetID: "1", Name: "web-01", CloudProvider: types.CloudAWS,
			AccountID: "111", AccountAlias: "Prod", Region: "us-east-1",
			InstanceID: "i-0abc", InstanceType: "t3.large",
			PrivateIP: "10.0.1.5", State: types.StateRunning,
			Source: types.SourceConnector, CreatedAt: created, UpdatedAt: created,
			Tags: map[string]string{"env": "prod"},
		},
		{
			AssetID: "2", Name: "batch-02", CloudProvider: types.CloudAWS,
			AccountID: "222", AccountAlias: "222", Region: "eu-west-1",
			State: types.StateStopped, Source: types.SourceScanner,
			CreatedAt: created, UpdatedAt: created,
		},
	}
	return &pipeline.Result{
		Assets:  assets,
		Aliases: alias.Map{"111": "Prod", "222": "222"},
		Summary: types.Summarize(assets, 1),
		Elapsed: 1250 * time.Millisecond,
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult().Assets))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Asset ID", records[0][0])
	assert.Equal(t, "Tags", records[0][14])

	assert.Equal(t, "web-01", records[1][1])
	assert.Equal(t, "Prod", records[1][4])
	assert.Contains(t, records[1][14], `"env":"prod"`)

	// empty tag map renders as empty cell, not "{}"
	assert.Equal(t, "", records[2][14])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1, "header only")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleResult(), "US2"))

	html := buf.String()
	assert.Contains(t, html, "Platform: US2")
	assert.Contains(t, html, "web-01")
	assert.Contains(t, html, "111 (Prod)")
	assert.Contains(t, html, `<option value="eu-west-1">`)
	assert.Contains(t, html, `class="state-RUNNING"`)
}

func TestWriteHTMLEscapes(t *testing.T) {
	result := sampleResult()
	result.Assets[0].Name = `<script>alert("x")</script>`

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, result, "US2"))
	assert.NotContains(t, buf.String(), `<script>alert`)
}

func TestWriteSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	WriteSummaryTable(&buf, sampleResult())

	out := buf.String()
	assert.Contains(t, out, "2 cloud VMs without agent")
	assert.Contains(t, out, "111 (Prod)")
	assert.Contains(t, out, "CONNECTOR=1")
	assert.Contains(t, out, "Skipped 1 malformed records")
}
