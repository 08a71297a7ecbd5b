// Package files locates the raw incident export on disk and establishes
// its identity.
//
// This package contains two concerns:
//
// Discovery: finds candidate source exports (.csv/.xlsx) in the data
// directory and picks the newest one, so dropping a fresh export into the
// directory is all an operator has to do.
//
// Identity: describes a source file as a domain.SourceInfo and computes a
// BLAKE2b-256 content fingerprint. The dataset cache keys on the
// fingerprint, so a re-saved but byte-identical file never triggers a
// rebuild while a changed file always does.
package files
