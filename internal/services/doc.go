// Package services holds the business logic between the HTTP layer and the
// data pipeline.
//
// DatasetService owns the clean dataset lifecycle. It resolves which export
// to load, validates it, runs the cleaning pipeline, and caches the
// immutable result keyed by content fingerprint. Reloads short-circuit on
// an unchanged stat identity before hashing and on an unchanged fingerprint
// before rebuilding, and every actual rebuild is announced through the
// websocket hub. Because datasets are immutable once built, the cached
// pointer is handed to concurrent readers without copying.
//
// QueryService answers the query surface. It filters the current dataset
// through the analytics engine, dispatches the enumerated aggregations, and
// serves the dimension options catalog for filter pickers.
//
// HealthService backs the probe endpoints with liveness, readiness, and
// runtime statistics; readiness requires a loaded dataset. SourceWatcher
// drives the reload schedule, revalidating the source on a fixed interval
// and letting the reload tiers decide whether any work happens.
//
// Services return the sentinel errors from internal/errors, which the
// transport layer maps onto RFC 7807 problem responses. ErrDatasetUnloaded
// marks the window between startup and the first successful load;
// ErrSourceMissing and ErrNoSourceDiscovered cover absent exports.
//
// Tests run against real pipeline components over t.TempDir fixtures; only
// the websocket hub is mocked, through the WebSocketHub interface.
package services
