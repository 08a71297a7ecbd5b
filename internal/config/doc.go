// Package config loads and validates the bitewatch configuration and owns
// every filesystem path the binaries touch.
//
// # Sources
//
// Load merges three sources. Environment variables win, a YAML config file
// fills whatever the environment left unset, and compiled-in defaults cover
// the rest. A .env file in the working directory is read into the
// environment first, with real environment variables taking precedence over
// it. Environment variables are namespaced with the BITEWATCH prefix:
//
//	BITEWATCH_SERVER_PORT=8080
//	BITEWATCH_DATA_SOURCE_FILE=Dog_Bite_Dataset.csv
//	BITEWATCH_WATCHER_INTERVAL=30s
//
// # Paths
//
// The Paths type is the single source of truth for directories and artifact
// locations. GetPaths resolves everything relative to the executable, never
// the working directory, so the web service and the processor CLI agree on
// the layout no matter where they are launched from:
//
//	<exe dir>/data            source exports
//	<exe dir>/data/reports    generated artifacts
//	<exe dir>/data/cache      scratch space
//	<exe dir>/logs            log files
//
// ApplyDataConfig points the set at explicitly configured directories.
// Relative overrides resolve against the executable directory as well, and
// the artifact paths follow wherever the reports directory ends up.
//
// # Validation
//
// Load refuses out-of-range ports, non-positive timeouts, an empty allowed
// origin list, a watcher interval under one second, and a non-positive
// source size cap. Logging settings are coerced to supported values rather
// than rejected.
package config
