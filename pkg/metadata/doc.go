// Package metadata defines the shared language of the paleo system.
//
// This package contains:
//   - Domain entities (Artifact, Execution, Event, Context, LineageGraph)
//   - The Store interface implemented by metadata store backends
//   - Property values and their filter-query mapping
//   - Named lookup errors (NotFoundError, AmbiguousError)
//
// The Golden Rule: pkg/metadata imports ONLY the stdlib.
// All other packages depend on metadata, not the reverse.
package metadata
