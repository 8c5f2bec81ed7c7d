// Package store persists lookup history in SQLite so past resolutions are
// inspectable after the process exits.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// LookupRecord is one persisted lookup outcome.
type LookupRecord struct {
	ID          string    `json:"id"`
	Geocode     string    `json:"geocode"`
	Success     bool      `json:"success"`
	Address     string    `json:"address,omitempty"`
	County      string    `json:"county,omitempty"`
	Lat         *float64  `json:"lat,omitempty"`
	Lng         *float64  `json:"lng,omitempty"`
	CoordSource string    `json:"coord_source,omitempty"`
	Error       string    `json:"error,omitempty"`
	LookedUpAt  time.Time `json:"looked_up_at"`
}

// SQLiteStore records lookup history using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens a SQLite database at the given DSN and configures WAL mode.
func Open(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lookups (
	id           TEXT PRIMARY KEY,
	geocode      TEXT NOT NULL,
	success      INTEGER NOT NULL,
	address      TEXT,
	county       TEXT,
	lat          REAL,
	lng          REAL,
	coord_source TEXT,
	error        TEXT,
	looked_up_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_lookups_geocode ON lookups(geocode);
CREATE INDEX IF NOT EXISTS idx_lookups_looked_up_at ON lookups(looked_up_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record persists one lookup outcome. A nil info with a non-nil lookupErr is
// a failed lookup.
func (s *SQLiteStore) Record(ctx context.Context, geocode string, info *model.PropertyInfo, lookupErr error) error {
	rec := LookupRecord{
		ID:         uuid.New().String(),
		Geocode:    geocode,
		LookedUpAt: time.Now().UTC(),
	}
	if info != nil {
		rec.Success = true
		rec.Address = info.Address
		rec.County = info.County
		rec.Lat = info.Lat
		rec.Lng = info.Lng
		rec.CoordSource = info.CoordSource
	} else if lookupErr != nil {
		rec.Error = lookupErr.Error()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lookups (id, geocode, success, address, county, lat, lng, coord_source, error, looked_up_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Geocode, boolToInt(rec.Success),
		nullable(rec.Address), nullable(rec.County), rec.Lat, rec.Lng,
		nullable(rec.CoordSource), nullable(rec.Error), rec.LookedUpAt,
	)
	return eris.Wrapf(err, "sqlite: insert lookup %s", geocode)
}

// Recent returns the most recent lookups, newest first. A non-empty geocode
// filters to that geocode's history.
func (s *SQLiteStore) Recent(ctx context.Context, geocode string, limit int) ([]LookupRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, geocode, success, address, county, lat, lng, coord_source, error, looked_up_at
		 FROM lookups WHERE 1=1`
	var args []any
	if geocode != "" {
		query += ` AND geocode = ?`
		args = append(args, geocode)
	}
	query += ` ORDER BY looked_up_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lookups")
	}
	defer rows.Close() //nolint:errcheck

	var records []LookupRecord
	for rows.Next() {
		var rec LookupRecord
		var success int
		var address, county, coordSource, errText sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Geocode, &success, &address, &county,
			&rec.Lat, &rec.Lng, &coordSource, &errText, &rec.LookedUpAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lookup")
		}
		rec.Success = success != 0
		rec.Address = address.String
		rec.County = county.String
		rec.CoordSource = coordSource.String
		rec.Error = errText.String
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list lookups iterate")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
