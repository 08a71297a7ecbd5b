// Package operations orchestrates the dataset refresh pipeline: the fixed
// sequence of stages that turns the newest raw bite export on disk into the
// in-memory clean dataset and the report artifacts derived from it.
//
// The pipeline is strictly linear. Each stage consumes what the previous one
// wrote into the shared OperationState:
//
//	discover -> validate -> build -> export
//
// Discover locates the newest source export and fingerprints it. Validate
// rejects unreadable, empty, or oversized sources before any parsing work.
// Build runs the cleaning pipeline and produces the immutable dataset.
// Export writes the clean CSV and the aggregate report artifacts.
//
// Core components:
//
// Runner: executes the registered steps in order, tracking per-step and
// overall state. A failed step fails the operation and skips everything
// after it; context cancellation does the same with cancelled status.
//
// Step: a single unit of work. Validate is called before Execute so a step
// can refuse to run when a prerequisite payload is missing from the state.
//
// OperationState: the runtime record of one execution. It carries the typed
// payload handed between stages (source identity, built dataset) plus the
// status, timing, and error of every step.
//
// Example usage:
//
//	runner := operations.NewRunner(logger,
//		operations.NewDiscoverStage(discovery, logger),
//		operations.NewValidateStage(validator),
//		operations.NewBuildStage(pipeline),
//		operations.NewExportStage(datasets, aggregates, paths, logger),
//	)
//	state, err := runner.Run(ctx)
//	if err != nil {
//		return err
//	}
//	dataset := state.Dataset()
package operations
