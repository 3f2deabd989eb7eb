package sqlite

import (
	"context"

	"github.com/paleoml/paleo/internal/store/traverse"
	"github.com/paleoml/paleo/pkg/metadata"
)

// GetLineageSubgraph returns everything reachable from the query's starting
// nodes. Traversal semantics live in the traverse package and are shared
// across backends.
func (s *Store) GetLineageSubgraph(ctx context.Context, q metadata.LineageSubgraphQuery) (*metadata.LineageGraph, error) {
	return traverse.Subgraph(ctx, s, q)
}
