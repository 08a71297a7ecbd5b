package domain

import (
	"fmt"
)

// Dimension identifies a filterable/groupable categorical axis of the
// dataset. Dimensions are a closed enumeration so that routing from a
// dimension to a record field is an exhaustive switch rather than
// string-keyed reflection.
type Dimension string

const (
	DimensionVictimRelationship Dimension = "victim_relationship"
	DimensionBiteLocation       Dimension = "bite_location"
	DimensionBiteSeverity       Dimension = "bite_severity"
	DimensionBiteCircumstance   Dimension = "bite_circumstance"
	DimensionControlledBy       Dimension = "controlled_by"
	DimensionBiteType           Dimension = "bite_type"
	DimensionCity               Dimension = "city"
	DimensionState              Dimension = "state"
	DimensionDayOfWeek          Dimension = "day_of_week"
	DimensionTimeOfDay          Dimension = "time_of_day"
	DimensionAgeGroup           Dimension = "age_group"
)

// AllDimensions returns every filterable dimension in presentation order
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionVictimRelationship,
		DimensionBiteLocation,
		DimensionBiteSeverity,
		DimensionBiteCircumstance,
		DimensionControlledBy,
		DimensionBiteType,
		DimensionCity,
		DimensionState,
		DimensionDayOfWeek,
		DimensionTimeOfDay,
		DimensionAgeGroup,
	}
}

// IsValid reports whether d names a known dimension
func (d Dimension) IsValid() bool {
	switch d {
	case DimensionVictimRelationship, DimensionBiteLocation, DimensionBiteSeverity,
		DimensionBiteCircumstance, DimensionControlledBy, DimensionBiteType,
		DimensionCity, DimensionState, DimensionDayOfWeek, DimensionTimeOfDay,
		DimensionAgeGroup:
		return true
	}
	return false
}

// Value extracts the record's value on this dimension
func (d Dimension) Value(rec *Incident) string {
	switch d {
	case DimensionVictimRelationship:
		return rec.VictimRelationship
	case DimensionBiteLocation:
		return rec.BiteLocation
	case DimensionBiteSeverity:
		return rec.BiteSeverity
	case DimensionBiteCircumstance:
		return rec.BiteCircumstance
	case DimensionControlledBy:
		return rec.ControlledBy
	case DimensionBiteType:
		return rec.BiteType
	case DimensionCity:
		return rec.City
	case DimensionState:
		return rec.State
	case DimensionDayOfWeek:
		return string(rec.DayOfWeek)
	case DimensionTimeOfDay:
		return string(rec.TimeOfDay)
	case DimensionAgeGroup:
		return string(rec.VictimAgeGroup)
	default:
		return ""
	}
}

// ParseDimension converts a wire identifier into a Dimension
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	if !d.IsValid() {
		return "", fmt.Errorf("unknown dimension: %q", s)
	}
	return d, nil
}
