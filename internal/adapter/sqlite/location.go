package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS locations (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id    TEXT    NOT NULL,
	user_id      INTEGER NOT NULL DEFAULT 0,
	latitude     REAL    NOT NULL,
	longitude    REAL    NOT NULL,
	timestamp    TEXT    NOT NULL,
	ts_unix_ms   INTEGER NOT NULL,
	display_time TEXT    NOT NULL DEFAULT '',
	battery      INTEGER,
	speed        REAL,
	first_name   TEXT    NOT NULL DEFAULT '',
	last_name    TEXT    NOT NULL DEFAULT '',
	marker_label TEXT    NOT NULL DEFAULT '',
	chat_id      INTEGER NOT NULL DEFAULT 0,
	received_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_locations_device_ts ON locations (device_id, ts_unix_ms DESC);
CREATE INDEX IF NOT EXISTS idx_locations_ts ON locations (ts_unix_ms DESC);
`

// LocationStore is the local cache of location reports.
type LocationStore struct {
	db  *sqlite.DB
	now func() time.Time
}

// NewLocationStore creates the schema if needed.
func NewLocationStore(ctx context.Context, db *sqlite.DB) (*LocationStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("LocationStore.migrate: %w", err)
	}
	return &LocationStore{db: db, now: time.Now}, nil
}

// Save stores one record. The record timestamp must be parseable.
func (s *LocationStore) Save(ctx context.Context, r models.LocationRecord) error {
	const op = "LocationStore.Save"

	ts, err := r.Time()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO locations (device_id, user_id, latitude, longitude, timestamp, ts_unix_ms, display_time,
			battery, speed, first_name, last_name, marker_label, chat_id, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query,
		string(r.DeviceID),
		int64(r.UserID),
		r.Latitude,
		r.Longitude,
		r.Timestamp,
		ts.UnixMilli(),
		r.DisplayTime,
		nullable(r.Battery),
		nullable(r.Speed),
		r.FirstName,
		r.LastName,
		r.MarkerLabel,
		r.ChatID,
		s.now().UnixMilli(),
	); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// Fetch returns MQTT device records matching the filter, newest first.
func (s *LocationStore) Fetch(ctx context.Context, f models.LocationFilter) ([]models.LocationRecord, error) {
	const op = "LocationStore.Fetch"

	query := `
		SELECT device_id, user_id, latitude, longitude, timestamp, display_time,
			battery, speed, first_name, last_name, marker_label, chat_id
		FROM locations
		WHERE user_id = 0`
	args := make([]any, 0, 3)

	if !f.DeviceID.IsZero() {
		query += ` AND device_id = ?`
		args = append(args, string(f.DeviceID))
	}
	if since := f.Since(s.now()); !since.IsZero() {
		query += ` AND ts_unix_ms >= ?`
		args = append(args, since.UnixMilli())
	}
	query += ` ORDER BY ts_unix_ms DESC, id DESC LIMIT ?`
	args = append(args, f.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	records := make([]models.LocationRecord, 0)
	for rows.Next() {
		var (
			r       models.LocationRecord
			id      string
			userID  int64
			battery sql.NullInt64
			speed   sql.NullFloat64
		)
		if err := rows.Scan(&id, &userID, &r.Latitude, &r.Longitude, &r.Timestamp, &r.DisplayTime,
			&battery, &speed, &r.FirstName, &r.LastName, &r.MarkerLabel, &r.ChatID); err != nil {
			return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
		}
		r.DeviceID = types.DeviceID(id)
		r.UserID = types.UserRef(userID)
		if battery.Valid {
			b := int(battery.Int64)
			r.Battery = &b
		}
		if speed.Valid {
			v := speed.Float64
			r.Speed = &v
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return records, nil
}

// Count returns the number of cached MQTT device records.
func (s *LocationStore) Count(ctx context.Context) (int, error) {
	const op = "LocationStore.Count"

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM locations WHERE user_id = 0`).Scan(&n); err != nil {
		return 0, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return n, nil
}

// CountByDevice returns the number of cached records per device.
func (s *LocationStore) CountByDevice(ctx context.Context) (map[types.DeviceID]int, error) {
	const op = "LocationStore.CountByDevice"

	rows, err := s.db.QueryContext(ctx, `SELECT device_id, count(*) FROM locations WHERE user_id = 0 GROUP BY device_id`)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	counts := make(map[types.DeviceID]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
		}
		counts[types.DeviceID(id)] = n
	}
	return counts, rows.Err()
}

// Prune deletes records whose timestamp is older than olderThan.
func (s *LocationStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	const op = "LocationStore.Prune"

	res, err := s.db.ExecContext(ctx, `DELETE FROM locations WHERE ts_unix_ms < ?`, olderThan.UnixMilli())
	if err != nil {
		return 0, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return res.RowsAffected()
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
