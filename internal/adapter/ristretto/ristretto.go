// Package ristretto implements the scheduler's policy decision cache
// using dgraph-io/ristretto as an in-process store. Safe because policy
// evaluation is pure and the cache key folds in the rule-set generation.
package ristretto

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/Overseer/internal/domain/policy"
)

// DecisionCache wraps a ristretto cache of policy evaluations.
type DecisionCache struct {
	c *ristretto.Cache[string, policy.EvaluationResult]
}

// New creates a decision cache sized for maxEntries evaluations.
func New(maxEntries int64) (*DecisionCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, policy.EvaluationResult]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &DecisionCache{c: c}, nil
}

// Get retrieves a cached evaluation.
func (d *DecisionCache) Get(key string) (policy.EvaluationResult, bool) {
	return d.c.Get(key)
}

// Set stores an evaluation at unit cost.
func (d *DecisionCache) Set(key string, res policy.EvaluationResult) {
	d.c.Set(key, res, 1)
}

// Close shuts down the cache and releases resources.
func (d *DecisionCache) Close() {
	d.c.Close()
}
