package tracking

// MilestoneState classifies one timeline entry relative to the current status.
type MilestoneState string

const (
	MilestoneDone    MilestoneState = "done"
	MilestoneCurrent MilestoneState = "current" // next expected step, rendered in-progress
	MilestonePending MilestoneState = "pending"
	MilestoneAlert   MilestoneState = "alert" // the cancellation entry
)

// TimelineEntry is one rendered milestone row.
type TimelineEntry struct {
	Status Status
	Label  string
	State  MilestoneState
}

// Timeline classifies every milestone for the given status: reached
// milestones are done, the next expected step is current, the rest pending.
// For CANCELLED the milestone rows all render neutral/pending and a single
// cancellation entry is appended as the sole active one.
func Timeline(status Status) []TimelineEntry {
	if status == StatusCancelled {
		out := make([]TimelineEntry, 0, len(Milestones)+1)
		for _, m := range Milestones {
			out = append(out, TimelineEntry{Status: m, Label: m.Label(), State: MilestonePending})
		}
		out = append(out, TimelineEntry{Status: StatusCancelled, Label: StatusCancelled.Label(), State: MilestoneAlert})
		return out
	}

	rank := status.Rank()
	out := make([]TimelineEntry, 0, len(Milestones))
	for i, m := range Milestones {
		entry := TimelineEntry{Status: m, Label: m.Label()}
		switch {
		case i <= rank:
			entry.State = MilestoneDone
		case i == rank+1:
			entry.State = MilestoneCurrent
		default:
			entry.State = MilestonePending
		}
		out = append(out, entry)
	}
	return out
}
