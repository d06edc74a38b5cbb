package timeutil

import (
	"testing"
	"time"
)

func TestRoundMinutes(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want int
	}{
		{
			name: "exact minutes",
			in:   24 * time.Minute,
			want: 24,
		},
		{
			name: "rounds down below half",
			in:   24*time.Minute + 29*time.Second,
			want: 24,
		},
		{
			name: "rounds up at half",
			in:   24*time.Minute + 30*time.Second,
			want: 25,
		},
		{
			name: "short durations are not truncated to zero",
			in:   45 * time.Second,
			want: 1,
		},
		{
			name: "zero",
			in:   0,
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RoundMinutes(tc.in); got != tc.want {
				t.Errorf("RoundMinutes(%v) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestSecsToMinsAndSecs(t *testing.T) {
	cases := []struct {
		in       float64
		wantMins int
		wantSecs int
	}{
		{in: 0, wantMins: 0, wantSecs: 0},
		{in: 59, wantMins: 0, wantSecs: 59},
		{in: 60, wantMins: 1, wantSecs: 0},
		{in: 1499, wantMins: 24, wantSecs: 59},
		{in: -5, wantMins: 0, wantSecs: 0},
	}

	for _, tc := range cases {
		mins, secs := SecsToMinsAndSecs(tc.in)
		if mins != tc.wantMins || secs != tc.wantSecs {
			t.Errorf(
				"SecsToMinsAndSecs(%v) = (%d, %d), want (%d, %d)",
				tc.in,
				mins,
				secs,
				tc.wantMins,
				tc.wantSecs,
			)
		}
	}
}

func TestMinsToHoursAndMins(t *testing.T) {
	hrs, mins := MinsToHoursAndMins(150)
	if hrs != 2 || mins != 30 {
		t.Errorf("MinsToHoursAndMins(150) = (%d, %d), want (2, 30)", hrs, mins)
	}
}

func TestRoundToStartAndEnd(t *testing.T) {
	in := time.Date(2024, 3, 15, 14, 30, 45, 123, time.UTC)

	start := RoundToStart(in)
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("RoundToStart(%v) = %v", in, start)
	}

	end := RoundToEnd(in)
	if end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
		t.Errorf("RoundToEnd(%v) = %v", in, end)
	}
}
