package dataprocessing

import (
	"sort"
	"strconv"
)

// ExtractAge pulls the first contiguous digit run out of free-form age text
// ("Age: 7 years" yields 7). The second return is false when the text holds
// no digits at all; those ages are imputed later from the column median.
func ExtractAge(text string) (int, bool) {
	start := -1
	end := len(text)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= '0' && c <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			end = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	age, err := strconv.Atoi(text[start:end])
	if err != nil {
		return 0, false
	}
	return age, true
}

// MedianAge returns the median over successfully parsed ages. Even counts
// average the two middle values, so the result may be fractional. The
// median is computed once over the full column, before any imputation, and
// is 0 when no age parsed at all.
func MedianAge(ages []int) float64 {
	if len(ages) == 0 {
		return 0
	}
	sorted := make([]int, len(ages))
	copy(sorted, ages)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}
