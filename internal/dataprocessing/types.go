package dataprocessing

import "time"

// RawRecord is one source row after cell-level typing but before feature
// derivation. Timestamp cells that did not conform to the export layout are
// nil; the cost cell is already coerced and clamped. Text cells are kept
// verbatim so later transforms see exactly what the export contained.
type RawRecord struct {
	BiteNumber         string
	IncidentDate       *time.Time
	DateReported       *time.Time
	VictimAgeText      string
	IncidentLocation   string
	VictimRelationship string
	BiteLocation       string
	BiteSeverity       string
	BiteCircumstance   string
	ControlledBy       string
	BiteType           string
	TreatmentCost      float64
}
