// Package shared holds cross-cutting helpers that do not belong to any
// single layer of bitewatch.
//
// Its only current member is testutil, the slog capture handler that tests
// across the module use to assert on structured log output. Domain logic
// never lives here; anything specific to datasets, queries, or transport
// belongs in its own package.
package shared
