package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"ride-track/internal/ports"
)

// RideEventRepo persists ride events using pgx and plain SQL.
type RideEventRepo struct{}

// NewRideEventRepo constructs a new RideEventRepo.
func NewRideEventRepo() ports.RideEventRepository {
	return &RideEventRepo{}
}

var errEventIncomplete = errors.New("ride event requires ride_id and event_type")

// Append inserts a new ride_events row.
func (repo *RideEventRepo) Append(ctx context.Context, event *ports.StoredEvent) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if event.RideID == "" || event.Type == "" {
		return errEventIncomplete
	}

	data := event.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ride_events (ride_id, event_type, occurred_at, event_data)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING id
	`,
		event.RideID,
		event.Type,
		event.OccurredAt.UTC(),
		string(payload),
	).Scan(&event.ID)
	if err != nil {
		return err
	}

	return nil
}

// ListByRide returns the full event history for a ride ordered by occurrence.
// Ordering here is a convenience; the tracking domain re-normalizes anyway
// because poll and push replays can interleave on the client.
func (repo *RideEventRepo) ListByRide(ctx context.Context, rideID string) ([]ports.StoredEvent, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, ride_id, event_type, occurred_at, event_data
		FROM ride_events
		WHERE ride_id = $1
		ORDER BY occurred_at ASC, id ASC
	`, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.StoredEvent
	for rows.Next() {
		var event ports.StoredEvent
		var raw []byte
		if err := rows.Scan(&event.ID, &event.RideID, &event.Type, &event.OccurredAt, &raw); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			// a malformed payload is skipped, not fatal: events are best-effort display data
			_ = json.Unmarshal(raw, &event.Data)
		}
		out = append(out, event)
	}

	return out, rows.Err()
}
