package journal

import (
	"database/sql"
	"time"
)

// Event is one recorded lifecycle transition.
type Event struct {
	ID      int64     `json:"id"`
	At      time.Time `json:"at"`
	RunID   string    `json:"run_id,omitempty"`
	PID     int       `json:"pid"`
	Action  string    `json:"action"`
	Process string    `json:"process,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// Record appends an event to the journal.
func (db *DB) Record(e *Event) error {
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	result, err := db.conn.Exec(
		"INSERT INTO events (at, run_id, pid, action, process, detail) VALUES (?, ?, ?, ?, ?, ?)",
		at.Format(time.RFC3339), e.RunID, e.PID, e.Action, e.Process, e.Detail,
	)
	if err != nil {
		return err
	}
	e.ID, _ = result.LastInsertId()
	return nil
}

// Recent returns the latest events, newest first, optionally filtered by
// action. A non-positive limit falls back to 20.
func (db *DB) Recent(action string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	query := "SELECT id, at, run_id, pid, action, process, detail FROM events"
	var args []any
	if action != "" {
		query += " WHERE action = ?"
		args = append(args, action)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var e Event
		var at string
		var runID, process, detail sql.NullString
		if err := rows.Scan(&e.ID, &at, &runID, &e.PID, &e.Action, &process, &detail); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339, at)
		e.RunID = runID.String
		e.Process = process.String
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// LastByAction returns the most recent event with the given action, or
// nil if none was ever recorded.
func (db *DB) LastByAction(action string) (*Event, error) {
	events, err := db.Recent(action, 1)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}
