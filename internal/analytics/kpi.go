package analytics

import (
	"fmt"
	"strconv"
	"strings"

	"bitewatch/pkg/contracts/domain"
)

// NotAvailable is the formatted sentinel for statistics undefined over an
// empty view. Mean-based KPIs use it instead of surfacing NaN.
const NotAvailable = "N/A"

// ComputeKPIs computes the four headline indicators over a view. Count and
// total cost are defined for any view, including the empty one ("0" and
// "$0"); the two means are unavailable when the view holds no records.
//
// Formats match the dashboard contract: count "1,234", age "27.4 Yrs",
// cost "$41,250", delay "2.3 Days".
func ComputeKPIs(view []domain.Incident) KPISet {
	count := len(view)

	var costTotal float64
	var ageTotal, delayTotal int
	for i := range view {
		costTotal += view[i].TreatmentCost
		ageTotal += view[i].VictimAge
		delayTotal += view[i].ReportDelayDays
	}

	set := KPISet{
		TotalIncidents: KPIValue{
			Value:     float64(count),
			Available: true,
			Formatted: groupThousands(strconv.Itoa(count)),
		},
		TotalCost: KPIValue{
			Value:     costTotal,
			Available: true,
			Formatted: "$" + groupThousands(strconv.FormatFloat(costTotal, 'f', 0, 64)),
		},
	}

	if count == 0 {
		set.AvgVictimAge = KPIValue{Formatted: NotAvailable}
		set.AvgReportDelay = KPIValue{Formatted: NotAvailable}
		return set
	}

	avgAge := float64(ageTotal) / float64(count)
	avgDelay := float64(delayTotal) / float64(count)
	set.AvgVictimAge = KPIValue{
		Value:     avgAge,
		Available: true,
		Formatted: fmt.Sprintf("%.1f Yrs", avgAge),
	}
	set.AvgReportDelay = KPIValue{
		Value:     avgDelay,
		Available: true,
		Formatted: fmt.Sprintf("%.1f Days", avgDelay),
	}
	return set
}

// groupThousands inserts comma separators into a non-negative integer
// string ("1234567" becomes "1,234,567")
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits) + (len(digits)-1)/3)
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
