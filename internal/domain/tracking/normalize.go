package tracking

import "sort"

// Normalize produces a strictly time-ordered, duplicate-free event sequence
// from a raw batch that may interleave poll results with push replays.
//
// Ordering policy: events with a parseable timestamp sort ascending by that
// timestamp (stable); events with an unparseable or missing timestamp are
// treated as occurring at fetch time and sort after all parseable ones, in
// arrival order. Exact duplicates (same type + same wire timestamp) collapse
// to the first occurrence.
func Normalize(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ParsedTS != b.ParsedTS {
			return a.ParsedTS // parseable first
		}
		if !a.ParsedTS {
			return false // both unparseable: keep arrival order
		}
		return a.Timestamp.Before(b.Timestamp)
	})

	seen := make(map[string]struct{}, len(out))
	dedup := out[:0]
	for _, event := range out {
		key := event.dedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dedup = append(dedup, event)
	}

	return dedup
}
