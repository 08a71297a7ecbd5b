package dataprocessing

import "time"

// ReportDelayDays returns the whole-day lag between an incident and its
// report. The difference is floored to day granularity and clamped at 0, so
// reports dated before the incident (a known data-entry defect in the
// source) never produce a negative delay. A nil report date yields 0.
func ReportDelayDays(incident time.Time, reported *time.Time) int {
	if reported == nil {
		return 0
	}
	days := int(reported.Sub(incident) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}
