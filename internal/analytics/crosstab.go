package analytics

import (
	"bitewatch/pkg/contracts/domain"
)

// CrossTab builds the dense weekday-by-daypart grid. The result always
// holds exactly 28 cells (7 weekdays x 4 dayparts) in canonical order,
// Monday through Sunday rows and Morning through Night columns, with 0 for
// combinations absent from the view. The empty view yields 28 zero cells.
func CrossTab(view []domain.Incident) []CrossTabCell {
	type key struct {
		day domain.DayOfWeek
		tod domain.TimeOfDay
	}
	counts := make(map[key]int, len(domain.WeekdayOrder)*len(domain.TimeOfDayOrder))
	for i := range view {
		counts[key{view[i].DayOfWeek, view[i].TimeOfDay}]++
	}

	cells := make([]CrossTabCell, 0, len(domain.WeekdayOrder)*len(domain.TimeOfDayOrder))
	for _, day := range domain.WeekdayOrder {
		for _, tod := range domain.TimeOfDayOrder {
			cells = append(cells, CrossTabCell{
				DayOfWeek: day,
				TimeOfDay: tod,
				Count:     counts[key{day, tod}],
			})
		}
	}
	return cells
}
