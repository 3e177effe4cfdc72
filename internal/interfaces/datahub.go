package interfaces

import (
	"context"

	"github.com/ternarybob/elo/internal/models"
)

// SourceFetcher queries one open-data backend and normalizes its rows into
// the canonical document shape. Fetch errors are the fetcher's to return;
// the aggregator converts them into empty result sets.
type SourceFetcher interface {
	// Name identifies the fetcher in logs and document Source fields
	Name() models.Source

	Fetch(ctx context.Context, query string) ([]models.SourceDocument, error)
}

// Aggregator fans a query out to source fetchers and merges the results.
// Neither method ever returns an error: a degraded backend contributes an
// empty set and the merge proceeds with whatever arrived.
type Aggregator interface {
	// SearchLegal queries the legislative sources only
	SearchLegal(ctx context.Context, query string) models.AggregationResult

	// SearchAll queries every registered source
	SearchAll(ctx context.Context, query string) models.AggregationResult
}
