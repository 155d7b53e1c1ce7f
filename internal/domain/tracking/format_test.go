package tracking

import (
	"testing"
	"time"
)

func TestFormatEstimatedArrival(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		eta  time.Time
		want string
	}{
		{now, "Arriving now"},
		{now.Add(-3 * time.Minute), "Arriving now"},
		{now.Add(30 * time.Second), "Arriving now"}, // inside the final minute
		{now.Add(7 * time.Minute), "Arriving in 7 min"},
		{now.Add(1 * time.Minute), "Arriving in 1 min"},
	}

	for _, tc := range cases {
		if got := FormatEstimatedArrival(now, tc.eta); got != tc.want {
			t.Errorf("eta %v: got %q, want %q", tc.eta.Sub(now), got, tc.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		ago  time.Duration
		want string
	}{
		{45 * time.Second, "just now"},
		{90 * time.Second, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{3700 * time.Second, "1 hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{25 * time.Hour, "1 day ago"},
		{72 * time.Hour, "3 days ago"},
	}

	for _, tc := range cases {
		if got := FormatRelativeTime(now, now.Add(-tc.ago)); got != tc.want {
			t.Errorf("%v ago: got %q, want %q", tc.ago, got, tc.want)
		}
	}
}
