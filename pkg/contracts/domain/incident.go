package domain

import (
	"time"
)

// UnknownValue is the canonical sentinel for missing or unparseable
// categorical values. Every categorical field in a cleaned Incident either
// holds a real value or this sentinel, never an empty string.
const UnknownValue = "UNKNOWN"

// Incident is the Single Source of Truth for one cleaned bite incident.
// It is produced exactly once by the cleaning pipeline and is immutable
// afterwards; every consumer (filter engine, aggregations, exporters, API)
// reads this structure.
//
// Field rules:
//   - IncidentDate is always valid; rows whose incident date fails to parse
//     never become Incidents (they are dropped at assembly and counted).
//   - DateReported may be nil when the reported timestamp was unparseable.
//   - ReportDelayDays is never negative; reports dated before the incident
//     clamp to 0.
//   - VictimAge is never negative; missing ages are imputed with the
//     dataset-wide median before bucketing.
//   - Categorical text fields are upper-cased, trimmed, and never empty
//     (UnknownValue stands in for missing data). City keeps its source
//     casing; State is upper-case by construction.
type Incident struct {
	IncidentID         string     `json:"incident_id" csv:"IncidentID" validate:"required"`
	IncidentDate       time.Time  `json:"incident_date" csv:"IncidentDate" validate:"required"`
	DateReported       *time.Time `json:"date_reported,omitempty" csv:"DateReported,omitempty"`
	ReportDelayDays    int        `json:"report_delay_days" csv:"ReportDelayDays" validate:"min=0"`
	IncidentYear       int        `json:"incident_year" csv:"IncidentYear"`
	DayOfWeek          DayOfWeek  `json:"day_of_week" csv:"DayOfWeek"`
	TimeOfDay          TimeOfDay  `json:"time_of_day" csv:"TimeOfDay"`
	VictimAge          int        `json:"victim_age" csv:"VictimAge" validate:"min=0"`
	VictimAgeGroup     AgeGroup   `json:"victim_age_group" csv:"VictimAgeGroup"`
	City               string     `json:"city" csv:"City"`
	State              string     `json:"state" csv:"State"`
	VictimRelationship string     `json:"victim_relationship" csv:"VictimRelationship"`
	BiteLocation       string     `json:"bite_location" csv:"BiteLocation"`
	BiteSeverity       string     `json:"bite_severity" csv:"BiteSeverity"`
	BiteCircumstance   string     `json:"bite_circumstance" csv:"BiteCircumstance"`
	ControlledBy       string     `json:"controlled_by" csv:"ControlledBy"`
	BiteType           string     `json:"bite_type" csv:"BiteType"`
	TreatmentCost      float64    `json:"treatment_cost" csv:"TreatmentCost" validate:"min=0"`
}

// MonthKey returns the year-month bucket of the incident date, e.g. "2015-07".
// Monthly trend aggregation groups on this key; its lexicographic order is
// chronological order.
func (i *Incident) MonthKey() string {
	return i.IncidentDate.Format("2006-01")
}

// CalendarDate returns the incident date truncated to midnight in its own
// location. Date-range filtering compares at this granularity.
func (i *Incident) CalendarDate() time.Time {
	y, m, d := i.IncidentDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, i.IncidentDate.Location())
}

// DayOfWeek is the calendar weekday of the incident
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

// WeekdayOrder is the canonical presentation order for weekday grouping
var WeekdayOrder = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// DayOfWeekFromTime maps a timestamp to its weekday name
func DayOfWeekFromTime(t time.Time) DayOfWeek {
	return DayOfWeek(t.Weekday().String())
}

// IsValid reports whether d is one of the seven weekday names
func (d DayOfWeek) IsValid() bool {
	for _, day := range WeekdayOrder {
		if d == day {
			return true
		}
	}
	return false
}

// TimeOfDay is the coarse daypart bucket of the incident hour
type TimeOfDay string

const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
	Night     TimeOfDay = "Night"
)

// TimeOfDayOrder is the canonical presentation order for daypart grouping
var TimeOfDayOrder = []TimeOfDay{Morning, Afternoon, Evening, Night}

// TimeOfDayFromHour buckets an hour of day (0-23) into a daypart.
// Ranges are half-open and evaluated in order: [5,12) Morning,
// [12,17) Afternoon, [17,21) Evening, everything else Night.
func TimeOfDayFromHour(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// IsValid reports whether t is one of the four dayparts
func (t TimeOfDay) IsValid() bool {
	for _, tod := range TimeOfDayOrder {
		if t == tod {
			return true
		}
	}
	return false
}

// AgeGroup is an ordered victim age bucket. Labels carry an ordinal prefix
// so that sorting by label sorts by age without a separate sort key.
type AgeGroup string

const (
	AgeGroupYoungChild AgeGroup = "1_Child (0-5)"
	AgeGroupChild      AgeGroup = "2_Child (6-12)"
	AgeGroupTeen       AgeGroup = "3_Teen (13-17)"
	AgeGroupYoungAdult AgeGroup = "4_Young Adult (18-35)"
	AgeGroupAdult      AgeGroup = "5_Adult (36-60)"
	AgeGroupSenior     AgeGroup = "6_Senior (61+)"
)

// AgeGroupOrder is the canonical age-ascending order of the six buckets
var AgeGroupOrder = []AgeGroup{
	AgeGroupYoungChild,
	AgeGroupChild,
	AgeGroupTeen,
	AgeGroupYoungAdult,
	AgeGroupAdult,
	AgeGroupSenior,
}

// AgeGroupFromAge buckets a victim age using inclusive upper bounds at
// 5, 12, 17, 35 and 60.
func AgeGroupFromAge(age int) AgeGroup {
	switch {
	case age <= 5:
		return AgeGroupYoungChild
	case age <= 12:
		return AgeGroupChild
	case age <= 17:
		return AgeGroupTeen
	case age <= 35:
		return AgeGroupYoungAdult
	case age <= 60:
		return AgeGroupAdult
	default:
		return AgeGroupSenior
	}
}

// IsValid reports whether g is one of the six buckets
func (g AgeGroup) IsValid() bool {
	for _, group := range AgeGroupOrder {
		if g == group {
			return true
		}
	}
	return false
}
