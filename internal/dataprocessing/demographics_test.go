package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAge(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   int
		wantOK bool
	}{
		{"bare number", "34", 34, true},
		{"prose prefix", "Age: 7 years", 7, true},
		{"first run wins", "3-5 years", 3, true},
		{"digits at end", "approximately 61", 61, true},
		{"zero", "0", 0, true},
		{"no digits", "unknown", 0, false},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"punctuation only", "n/a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAge(tt.text)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMedianAge(t *testing.T) {
	tests := []struct {
		name string
		ages []int
		want float64
	}{
		{"empty column", nil, 0},
		{"single value", []int{40}, 40},
		{"odd count", []int{30, 10, 20}, 20},
		{"even count averages middle pair", []int{10, 21}, 15.5},
		{"even count whole result", []int{5, 10, 20, 25}, 15},
		{"unsorted input", []int{60, 5, 35, 12, 17}, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MedianAge(tt.ages))
		})
	}
}

func TestMedianAge_DoesNotMutateInput(t *testing.T) {
	ages := []int{30, 10, 20}
	MedianAge(ages)
	assert.Equal(t, []int{30, 10, 20}, ages)
}
