package exporter

import (
	"strconv"
	"time"
)

// csvTimestampLayout is the timestamp format used in exported CSVs
const csvTimestampLayout = "2006-01-02 15:04:05"

// formatCost formats a treatment cost with exactly 2 decimal places so
// 13.4 appears as 13.40 in every exported row
func formatCost(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatFloat formats a float without trailing zeros
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatTimestamp formats a timestamp for CSV output
func formatTimestamp(t time.Time) string {
	return t.Format(csvTimestampLayout)
}

// formatOptionalTimestamp formats a nullable timestamp, empty when nil
func formatOptionalTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(csvTimestampLayout)
}
