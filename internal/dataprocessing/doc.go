// Package dataprocessing turns raw animal-control bite exports into the
// clean incident dataset every other component consumes. It covers the
// complete transform lifecycle from CSV/XLSX ingestion through feature
// derivation to final assembly.
//
// # Architecture
//
// The package is organized as a fixed sequence of transform stages:
//
//  1. Ingest: reads a .csv or .xlsx export into typed raw rows
//  2. Temporal: report delay, weekday, daypart and year features
//  3. Demographics: digit-run age extraction and median imputation
//  4. Location: city/state heuristics over free-text addresses
//  5. TextNorm: categorical canonicalization with the UNKNOWN sentinel
//
// Assembly runs the stages in order, drops rows whose incident date never
// parsed, and produces an immutable domain.Dataset.
//
// # Usage
//
// Basic pipeline run:
//
//	pipeline := dataprocessing.NewPipeline(logger)
//	dataset, err := pipeline.Run(ctx, sourceInfo)
//	if err != nil {
//	    return err
//	}
//
// Individual transforms are exported as pure functions so they can be used
// (and tested) in isolation:
//
//	city := dataprocessing.ExtractCity("400 Elm St, Dallas, TX 75201")
//	age, ok := dataprocessing.ExtractAge("Age: 7 years")
//
// # Data Flow
//
//	Raw export → Ingest → RawRecords → Derive features → Assemble → domain.Dataset
//
// # Error Handling
//
// Cell-level defects never fail a row: unparseable timestamps become nil,
// unparseable costs become 0, missing categoricals become UNKNOWN. Only
// source-level defects (unreadable file, missing required columns, empty
// file) surface as errors; rows dropped for a null incident date are
// counted on the dataset instead.
package dataprocessing
