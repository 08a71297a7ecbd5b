// Package app assembles the bitewatch web service and manages its
// lifecycle.
//
// NewApplication performs the whole startup sequence. It loads the
// configuration, resolves the executable-relative paths with any
// configured directory overrides, initializes the structured logger and
// the OpenTelemetry providers, builds the websocket hub and the dataset,
// query, and health services, and wires the chi router and HTTP server
// around them. Every component receives its dependencies through its
// constructor; nothing reaches for globals once the application exists.
//
// Run blocks until SIGINT, SIGTERM, or a fatal server error. Start brings
// the pieces up in dependency order: the metrics collector, the initial
// dataset load, the source watcher, the status broadcaster, then the HTTP
// listener. A startup health check logs warnings for unwritable
// directories or a missing configured source without failing startup,
// since the watcher keeps looking for the source on its own schedule.
//
// Stop drains in-flight requests up to the configured shutdown timeout,
// then stops the watcher, the status broadcaster, the metrics collector,
// and the hub, flushes the OpenTelemetry providers, and closes the log
// file last so the shutdown messages still reach it. Errors are returned
// to main rather than exiting from inside the package.
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
package app
