package types

// RunSummary aggregates the outcome of one pipeline run.
type RunSummary struct {
	TotalIncluded    int                 `json:"total_included"`
	DistinctAccounts int                 `json:"distinct_accounts"`
	DistinctRegions  int                 `json:"distinct_regions"`
	BySource         map[AssetSource]int `json:"by_source"`
	SkippedRecords   int                 `json:"skipped_records"`
}

// Summarize computes a RunSummary over the final asset list. The skipped
// count comes from the orchestrator, not from the list itself.
func Summarize(assets []Asset, skipped int) RunSummary {
	accounts := make(map[string]struct{})
	regions := make(map[string]struct{})
	bySource := make(map[AssetSource]int)

	for _, a := range assets {
		accounts[a.AccountID] = struct{}{}
		if a.Region != "" {
			regions[a.Region] = struct{}{}
		}
		bySource[a.Source]++
	}

	return RunSummary{
		TotalIncluded:    len(assets),
		DistinctAccounts: len(accounts),
		DistinctRegions:  len(regions),
		BySource:         bySource,
		SkippedRecords:   skipped,
	}
}
