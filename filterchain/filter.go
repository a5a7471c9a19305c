// Package filterchain applies the exclusion rules that de-noise the
// normalized dataset.
package filterchain

import (
	"time"

	"github.com/agentgap/agentgap/types"
)

// Chain is the ordered exclusion filter. The predicates are pure and commute
// on outcome; the order only short-circuits the cheap checks first.
type Chain struct {
	createdCutoff time.Duration
	updatedCutoff time.Duration
	now           time.Time
}

// New builds a chain with the given cutoff windows (0 disables a window).
// The reference instant is fixed at construction so one run is evaluated
// against a single consistent "now".
func New(createdCutoff, updatedCutoff time.Duration) *Chain {
	return NewAt(createdCutoff, updatedCutoff, time.Now().UTC())
}

// NewAt builds a chain with an explicit reference instant.
func NewAt(createdCutoff, updatedCutoff time.Duration, now time.Time) *Chain {
	return &Chain{
		createdCutoff: createdCutoff,
		updatedCutoff: updatedCutoff,
		now:           now,
	}
}

// Keep reports whether an asset survives every exclusion rule:
// agent present, terminated, missing account attribution, and the optional
// created/updated windows (both must hold when both are configured).
func (c *Chain) Keep(a types.Asset) bool {
	if a.HasAgent {
		return false
	}
	if a.State == types.StateTerminated {
		return false
	}
	if a.AccountID == "" {
		return false
	}
	if c.createdCutoff > 0 && a.CreatedAt.Before(c.now.Add(-c.createdCutoff)) {
		return false
	}
	if c.updatedCutoff > 0 && a.UpdatedAt.Before(c.now.Add(-c.updatedCutoff)) {
		return false
	}
	return true
}
