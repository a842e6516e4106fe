package event

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteRecorder subscribes to a bus and archives published events to
// SQLite for post-hoc inspection of connection churn. It is suitable for
// single-process use.
type SQLiteRecorder struct {
	db     *sql.DB
	sub    Subscription
	logger *slog.Logger
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewSQLiteRecorder opens (or creates) the archive at path and starts
// recording events published on bus. The path should be a file path
// (e.g., "./events.db") or ":memory:" for testing.
func NewSQLiteRecorder(path string, bus Bus, logger *slog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			payload BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	r := &SQLiteRecorder{
		db:     db,
		sub:    bus.Subscribe(),
		logger: logger,
	}

	r.wg.Add(1)
	go r.record()

	return r, nil
}

func (r *SQLiteRecorder) record() {
	defer r.wg.Done()

	for evt := range r.sub.C() {
		payload, err := json.Marshal(evt)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("event not serializable, skipping",
					slog.String("type", fmt.Sprintf("%T", evt)),
					slog.String("error", err.Error()),
				)
			}
			continue
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		_, err = r.db.Exec(
			`INSERT INTO events (type, recorded_at, payload) VALUES (?, ?, ?)`,
			fmt.Sprintf("%T", evt),
			time.Now().UTC().Format(time.RFC3339Nano),
			payload,
		)
		r.mu.Unlock()

		if err != nil && r.logger != nil {
			r.logger.Warn("event archive write failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// Recorded is one archived event row.
type Recorded struct {
	Seq        int64
	Type       string
	RecordedAt time.Time
	Payload    []byte
}

// Events returns up to limit archived events in publish order.
// A limit <= 0 returns all rows.
func (r *SQLiteRecorder) Events(limit int) ([]Recorded, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("recorder closed")
	}

	query := `SELECT seq, type, recorded_at, payload FROM events ORDER BY seq`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Recorded
	for rows.Next() {
		var rec Recorded
		var ts string
		if err := rows.Scan(&rec.Seq, &rec.Type, &ts, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.RecordedAt, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close stops recording and closes the archive. Idempotent.
func (r *SQLiteRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.sub.Unsubscribe()
	r.wg.Wait()
	return r.db.Close()
}
