package tracking

import "testing"

func TestTimelineClassification(t *testing.T) {
	cases := []struct {
		status Status
		want   []MilestoneState
	}{
		{StatusBooked, []MilestoneState{MilestoneDone, MilestoneCurrent, MilestonePending, MilestonePending, MilestonePending}},
		{StatusDispatched, []MilestoneState{MilestoneDone, MilestoneDone, MilestoneCurrent, MilestonePending, MilestonePending}},
		{StatusVehicleArrived, []MilestoneState{MilestoneDone, MilestoneDone, MilestoneDone, MilestoneCurrent, MilestonePending}},
		{StatusPassengerOnBoard, []MilestoneState{MilestoneDone, MilestoneDone, MilestoneDone, MilestoneDone, MilestoneCurrent}},
		{StatusCompleted, []MilestoneState{MilestoneDone, MilestoneDone, MilestoneDone, MilestoneDone, MilestoneDone}},
	}

	for _, tc := range cases {
		entries := Timeline(tc.status)
		if len(entries) != len(Milestones) {
			t.Fatalf("%s: got %d entries, want %d", tc.status, len(entries), len(Milestones))
		}
		for i, entry := range entries {
			if entry.State != tc.want[i] {
				t.Errorf("%s: milestone %s = %s, want %s", tc.status, entry.Status, entry.State, tc.want[i])
			}
		}
	}
}

func TestTimelineCancelled(t *testing.T) {
	entries := Timeline(StatusCancelled)
	if len(entries) != len(Milestones)+1 {
		t.Fatalf("got %d entries, want %d", len(entries), len(Milestones)+1)
	}

	for _, entry := range entries[:len(Milestones)] {
		if entry.State != MilestonePending {
			t.Errorf("milestone %s = %s, want pending", entry.Status, entry.State)
		}
	}

	last := entries[len(entries)-1]
	if last.Status != StatusCancelled || last.State != MilestoneAlert {
		t.Errorf("cancellation entry = %+v, want alert CANCELLED", last)
	}
}
