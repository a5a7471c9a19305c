// Package pipeline composes fetch, normalize, filter, and alias resolution
// into a single pass over the aggregator data.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/agentgap/agentgap/alias"
	"github.com/agentgap/agentgap/config"
	"github.com/agentgap/agentgap/filterchain"
	"github.com/agentgap/agentgap/normalize"
	"github.com/agentgap/agentgap/qualys"
	"github.com/agentgap/agentgap/telemetry"
	"github.com/agentgap/agentgap/types"
)

// Fetcher yields raw records one page at a time.
type Fetcher interface {
	HasMorePages() bool
	NextPage(ctx context.Context) ([]qualys.HostAsset, error)
}

// AliasSource lists account display names from the platform.
type AliasSource interface {
	AccountAliases(ctx context.Context, cloud types.CloudProvider) (map[string]string, error)
}

// Result is the boundary value handed to report writers: the ordered asset
// list, the final alias map, and the run summary.
type Result struct {
	Assets  []types.Asset
	Aliases alias.Map
	Summary types.RunSummary
	Started time.Time
	Elapsed time.Duration
}

// Pipeline drives one full run. It is the only component holding mutable
// accumulation state (the output list and the skipped-record counter).
type Pipeline struct {
	cfg     *config.Config
	fetcher Fetcher
	aliases AliasSource
	chain   *filterchain.Chain
	logger  *telemetry.Logger
}

// New builds a pipeline for one run. The filter chain's reference instant is
// fixed here so every asset is judged against the same "now".
func New(cfg *config.Config, fetcher Fetcher, aliases AliasSource) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		aliases: aliases,
		chain:   filterchain.New(cfg.CreatedCutoff(), cfg.UpdatedCutoff()),
		logger:  telemetry.NewLogger("pipeline"),
	}
}

type aliasFetch struct {
	aliases map[string]string
	err     error
}

// Run executes the full pass. Alias listing runs concurrently with page
// fetching; resolution happens strictly after all assets are known. A
// malformed record is skipped and counted; any transport or auth failure
// aborts the run with no partial output.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	ctx, span := telemetry.Tracer.Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(attribute.String("cloud", string(p.cfg.Cloud)))

	// alias listing has no ordering dependency on asset pages; hand the
	// result over the channel so no shared state is written concurrently.
	// The derived context releases the outstanding call if the run aborts
	// before the alias result is consumed.
	aliasCtx, cancelAlias := context.WithCancel(ctx)
	defer cancelAlias()
	aliasCh := make(chan aliasFetch, 1)
	go func() {
		fetched, err := p.aliases.AccountAliases(aliasCtx, p.cfg.Cloud)
		aliasCh <- aliasFetch{aliases: fetched, err: err}
	}()

	assets, skipped, err := p.collect(ctx)
	if err != nil {
		return nil, err
	}

	apiAliases := <-aliasCh
	if apiAliases.err != nil {
		return nil, apiAliases.err
	}

	resolved := alias.Resolve(accountsSeen(assets), apiAliases.aliases, p.cfg.AccountAliasOverrides)
	for i := range assets {
		assets[i].AccountAlias = resolved.Lookup(assets[i].AccountID)
	}

	summary := types.Summarize(assets, skipped)
	elapsed := time.Since(start)
	if telemetry.RunDuration != nil {
		telemetry.RunDuration.Record(ctx, elapsed.Seconds())
	}

	p.logger.WithContext(ctx).Info().
		Int("included", summary.TotalIncluded).
		Int("skipped", summary.SkippedRecords).
		Int("accounts", summary.DistinctAccounts).
		Dur("elapsed", elapsed).
		Msg("pipeline run complete")

	return &Result{
		Assets:  assets,
		Aliases: resolved,
		Summary: summary,
		Started: start,
		Elapsed: elapsed,
	}, nil
}

// collect pulls every page, normalizes, and filters, preserving API delivery
// order. One malformed record never aborts the run.
func (p *Pipeline) collect(ctx context.Context) (assets []types.Asset, skipped int, err error) {
	for p.fetcher.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, 0, &types.TransportError{Op: "fetch pages", Err: err}
		}

		page, err := p.fetcher.NextPage(ctx)
		if err != nil {
			return nil, 0, err
		}
		telemetry.CountPage(ctx, len(page))

		for _, raw := range page {
			asset, err := normalize.Record(raw, p.cfg.Cloud)
			if err != nil {
				var normErr *types.NormalizationError
				if errors.As(err, &normErr) {
					skipped++
					if telemetry.RecordsSkipped != nil {
						telemetry.RecordsSkipped.Add(ctx, 1)
					}
					p.logger.WithContext(ctx).Debug().
						Str("asset_id", normErr.AssetID).
						Str("field", normErr.Field).
						Msg("skipping malformed record")
					continue
				}
				return nil, 0, err
			}
			if telemetry.RecordsNormalized != nil {
				telemetry.RecordsNormalized.Add(ctx, 1)
			}

			if p.chain.Keep(asset) {
				assets = append(assets, asset)
				if telemetry.AssetsKept != nil {
					telemetry.AssetsKept.Add(ctx, 1)
				}
			}
		}
	}
	return assets, skipped, nil
}

// accountsSeen returns the distinct account IDs in first-seen order.
func accountsSeen(assets []types.Asset) []string {
	seen := make(map[string]struct{}, len(assets))
	var ids []string
	for _, a := range assets {
		if _, ok := seen[a.AccountID]; !ok {
			seen[a.AccountID] = struct{}{}
			ids = append(ids, a.AccountID)
		}
	}
	return ids
}
