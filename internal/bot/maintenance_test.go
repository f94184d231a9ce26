package bot

import (
	"testing"
	"time"
)

func TestNextWeeklyReset(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "midweek rolls to next sunday",
			now:  time.Date(2025, 8, 6, 12, 0, 0, 0, time.UTC), // Wednesday
			want: time.Date(2025, 8, 10, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday before boundary stays same day",
			now:  time.Date(2025, 8, 10, 7, 59, 0, 0, time.UTC),
			want: time.Date(2025, 8, 10, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday at boundary rolls a full week",
			now:  time.Date(2025, 8, 10, 8, 0, 0, 0, time.UTC),
			want: time.Date(2025, 8, 17, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday after boundary rolls a full week",
			now:  time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC),
			want: time.Date(2025, 8, 17, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextWeeklyReset(tt.now); !got.Equal(tt.want) {
				t.Errorf("nextWeeklyReset(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestNextMidnight(t *testing.T) {
	now := time.Date(2025, 8, 6, 23, 30, 0, 0, time.UTC)
	want := time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC)
	if got := nextMidnight(now); !got.Equal(want) {
		t.Errorf("nextMidnight(%v) = %v, want %v", now, got, want)
	}
	if got := nextMidnight(want); !got.Equal(want.AddDate(0, 0, 1)) {
		t.Errorf("nextMidnight at midnight should roll a day, got %v", got)
	}
}
