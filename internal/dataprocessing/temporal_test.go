package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportDelayDays(t *testing.T) {
	incident := time.Date(2015, time.July, 4, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		reported *time.Time
		want     int
	}{
		{
			name:     "nil report date",
			reported: nil,
			want:     0,
		},
		{
			name:     "same instant",
			reported: timePtr(incident),
			want:     0,
		},
		{
			name:     "two days later",
			reported: timePtr(incident.Add(48 * time.Hour)),
			want:     2,
		},
		{
			name:     "partial day floors down",
			reported: timePtr(incident.Add(47 * time.Hour)),
			want:     1,
		},
		{
			name:     "under one day",
			reported: timePtr(incident.Add(23 * time.Hour)),
			want:     0,
		},
		{
			name:     "reported before incident clamps to zero",
			reported: timePtr(incident.Add(-48 * time.Hour)),
			want:     0,
		},
		{
			name:     "reported one hour before clamps to zero",
			reported: timePtr(incident.Add(-time.Hour)),
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReportDelayDays(incident, tt.reported))
		})
	}
}
