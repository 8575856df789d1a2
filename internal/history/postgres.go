package history

import (
	"context"
	"encoding/json"

	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/db"
)

// PgStore backs both logs with Postgres tables (see internal/migrate). Used
// by the server deployment; the CLI defaults to the JSON file stores.
type PgStore struct {
	db  *db.DB
	ctx context.Context
}

func NewPgStore(ctx context.Context, d *db.DB) *PgStore {
	return &PgStore{db: d, ctx: ctx}
}

func (s *PgStore) Selections() ([]Selection, error) {
	rows, err := s.db.Query(s.ctx, `
SELECT selected_at, venue, date, time, day_of_week, time_of_day, price, court_type, location, indoor_outdoor
FROM selections
ORDER BY selected_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Selection
	for rows.Next() {
		var sel Selection
		if err := rows.Scan(
			&sel.Timestamp, &sel.Venue, &sel.Date, &sel.Time, &sel.DayOfWeek,
			&sel.TimeOfDay, &sel.Price, &sel.CourtType, &sel.Location, &sel.IndoorOutdoor,
		); err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, rows.Err()
}

func (s *PgStore) AppendSelection(sel Selection) error {
	return s.db.Exec(s.ctx, `
INSERT INTO selections(selected_at, venue, date, time, day_of_week, time_of_day, price, court_type, location, indoor_outdoor)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		sel.Timestamp, sel.Venue, sel.Date, sel.Time, sel.DayOfWeek,
		sel.TimeOfDay, sel.Price, sel.CourtType, sel.Location, sel.IndoorOutdoor)
}

func (s *PgStore) Attempts() ([]Attempt, error) {
	rows, err := s.db.Query(s.ctx, `
SELECT attempted_at, status, slot, COALESCE(error, '')
FROM booking_attempts
ORDER BY attempted_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var slotJSON []byte
		if err := rows.Scan(&a.Timestamp, &a.Status, &slotJSON, &a.Error); err != nil {
			return nil, err
		}
		var slot booking.Slot
		if err := json.Unmarshal(slotJSON, &slot); err == nil {
			a.Slot = slot
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PgStore) AppendAttempt(a Attempt) error {
	slotJSON, err := json.Marshal(a.Slot)
	if err != nil {
		return err
	}
	var errCol *string
	if a.Error != "" {
		errCol = &a.Error
	}
	return s.db.Exec(s.ctx, `
INSERT INTO booking_attempts(attempted_at, status, slot, error)
VALUES ($1,$2,$3,$4)`,
		a.Timestamp, a.Status, slotJSON, errCol)
}
