package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"time"

	"github.com/agentgap/agentgap/pipeline"
	"github.com/agentgap/agentgap/types"
)

// htmlData feeds the report template.
type htmlData struct {
	Platform    string
	GeneratedAt string
	Summary     types.RunSummary
	Accounts    []accountCount
	Regions     []string
	Assets      []types.Asset
}

type accountCount struct {
	Label string
	Count int
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Cloud VMs Without Agent</title>
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background: #f3f4f6; margin: 0; padding: 24px; color: #374151; }
.container { max-width: 1600px; margin: 0 auto; }
.header { background: #4f46e5; color: white; padding: 32px; border-radius: 12px; margin-bottom: 24px; }
.header h1 { margin: 0 0 8px; font-size: 28px; }
.header p { margin: 0; opacity: 0.85; font-size: 14px; }
.stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; margin-bottom: 24px; }
.stat-card { background: white; padding: 20px; border-radius: 10px; border: 1px solid #e5e7eb; }
.stat-value { font-size: 32px; font-weight: 700; color: #4f46e5; }
.stat-label { color: #6b7280; font-size: 12px; text-transform: uppercase; letter-spacing: 0.5px; }
.filters { background: white; padding: 16px; border-radius: 10px; margin-bottom: 16px; display: flex; gap: 12px; flex-wrap: wrap; }
.filters input, .filters select { padding: 10px 14px; border: 1px solid #d1d5db; border-radius: 8px; font-size: 14px; }
.filters input { width: 300px; }
table { width: 100%; border-collapse: collapse; background: white; border-radius: 10px; overflow: hidden; }
th { background: #374151; color: white; padding: 12px 14px; text-align: left; cursor: pointer; font-size: 12px; text-transform: uppercase; white-space: nowrap; }
td { padding: 11px 14px; border-bottom: 1px solid #f3f4f6; font-size: 13px; }
tr:hover td { background: #f0f9ff; }
.state-RUNNING { color: #10b981; font-weight: 600; }
.state-STOPPED, .state-TERMINATED { color: #ef4444; font-weight: 600; }
.hidden { display: none; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>Cloud VMs Without Agent</h1>
<p>Platform: {{.Platform}} | Generated: {{.GeneratedAt}}</p>
</div>
<div class="stats">
<div class="stat-card"><div class="stat-value">{{.Summary.TotalIncluded}}</div><div class="stat-label">VMs Without Agent</div></div>
<div class="stat-card"><div class="stat-value">{{.Summary.DistinctAccounts}}</div><div class="stat-label">Cloud Accounts</div></div>
<div class="stat-card"><div class="stat-value">{{.Summary.DistinctRegions}}</div><div class="stat-label">Regions</div></div>
<div class="stat-card"><div class="stat-value">{{.Summary.SkippedRecords}}</div><div class="stat-label">Skipped Records</div></div>
</div>
<div class="filters">
<input type="text" id="search" placeholder="Search assets..." onkeyup="filterTable()">
<select id="accountFilter" onchange="filterTable()">
<option value="">All Accounts</option>
{{range .Accounts}}<option value="{{.Label}}">{{.Label}} ({{.Count}})</option>
{{end}}</select>
<select id="regionFilter" onchange="filterTable()">
<option value="">All Regions</option>
{{range .Regions}}<option value="{{.}}">{{.}}</option>
{{end}}</select>
</div>
<table id="assetsTable">
<thead><tr>
<th onclick="sortTable(0)">Name</th>
<th onclick="sortTable(1)">Account</th>
<th onclick="sortTable(2)">Region</th>
<th onclick="sortTable(3)">Instance ID</th>
<th onclick="sortTable(4)">Type</th>
<th onclick="sortTable(5)">Private IP</th>
<th onclick="sortTable(6)">State</th>
<th onclick="sortTable(7)">Source</th>
<th onclick="sortTable(8)">Created</th>
</tr></thead>
<tbody>
{{range .Assets}}<tr data-account="{{.AccountLabel}}" data-region="{{.Region}}">
<td>{{.Name}}</td>
<td>{{.AccountLabel}}</td>
<td>{{.Region}}</td>
<td>{{.InstanceID}}</td>
<td>{{.InstanceType}}</td>
<td>{{.PrivateIP}}</td>
<td class="state-{{.State}}">{{.State}}</td>
<td>{{.Source}}</td>
<td>{{.CreatedAt.Format "2006-01-02"}}</td>
</tr>
{{end}}</tbody>
</table>
</div>
<script>
function filterTable() {
  const search = document.getElementById('search').value.toLowerCase();
  const account = document.getElementById('accountFilter').value;
  const region = document.getElementById('regionFilter').value;
  document.querySelectorAll('#assetsTable tbody tr').forEach(row => {
    const matchSearch = !search || row.textContent.toLowerCase().includes(search);
    const matchAccount = !account || row.dataset.account === account;
    const matchRegion = !region || row.dataset.region === region;
    row.classList.toggle('hidden', !(matchSearch && matchAccount && matchRegion));
  });
}
let sortDir = 1;
function sortTable(col) {
  const tbody = document.querySelector('#assetsTable tbody');
  const rows = Array.from(tbody.rows);
  rows.sort((a, b) => a.cells[col].textContent.localeCompare(b.cells[col].textContent) * sortDir);
  rows.forEach(r => tbody.appendChild(r));
  sortDir *= -1;
}
</script>
</body></html>
`))

// WriteHTML renders the filterable HTML report.
func WriteHTML(w io.Writer, result *pipeline.Result, platform string) error {
	accounts := make(map[string]int)
	regions := make(map[string]struct{})
	for _, a := range result.Assets {
		accounts[a.AccountLabel()]++
		if a.Region != "" {
			regions[a.Region] = struct{}{}
		}
	}

	data := htmlData{
		Platform:    platform,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		Summary:     result.Summary,
		Assets:      result.Assets,
	}
	for label, count := range accounts {
		data.Accounts = append(data.Accounts, accountCount{Label: label, Count: count})
	}
	sort.Slice(data.Accounts, func(i, j int) bool {
		return data.Accounts[i].Label < data.Accounts[j].Label
	})
	for region := range regions {
		data.Regions = append(data.Regions, region)
	}
	sort.Strings(data.Regions)

	if err := htmlTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

// WriteHTMLFile writes the HTML report to path.
func WriteHTMLFile(path string, result *pipeline.Result, platform string) error {
	f, err := os.Create(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return fmt.Errorf("failed to create HTML report: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteHTML(f, result, platform); err != nil {
		return err
	}
	return f.Close()
}
