package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/jpillora/backoff"
	"github.com/rs/xid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/repository"
)

var _ repository.EventRepository = (*DB)(nil)

// appendAttempts bounds how often Append retries a busy database.
const appendAttempts = 5

// payloadMode keeps sub-second precision of event times. The default CBOR
// time encoding is whole Unix seconds.
var payloadMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Append stores e under a fresh xid. xids sort by creation time, so ordering
// by id is ordering by insertion.
//
// RETRIES:
// busy_timeout already waits inside SQLite. When that is not enough (another
// process holds the write lock for long), Append backs off and tries again a
// few times before giving up.
func (db *DB) Append(ctx context.Context, e observer.Event) (repository.Record, error) {
	payload, err := payloadMode.Marshal(e)
	if err != nil {
		return repository.Record{}, fmt.Errorf("sqlite: encoding event %s: %w", e.Kind, err)
	}
	rec := repository.Record{
		ID:       xid.New().String(),
		Recorded: time.Now().UTC(),
		Event:    e,
	}

	b := backoff.Backoff{Min: 10 * time.Millisecond, Max: 500 * time.Millisecond, Factor: 2, Jitter: true}
	for {
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO events (id, kind, actor, entity, at, recorded, payload)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID,
			string(e.Kind),
			e.Actor.String(),
			e.Entity.String(),
			e.At.UTC(),
			rec.Recorded,
			payload,
		)
		if err == nil {
			return rec, nil
		}
		if !isBusy(err) || int(b.Attempt()) >= appendAttempts-1 {
			return repository.Record{}, fmt.Errorf("sqlite: appending event %s: %w", e.Kind, err)
		}
		timer := time.NewTimer(b.Duration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return repository.Record{}, fmt.Errorf("sqlite: appending event %s: %w", e.Kind, ctx.Err())
		case <-timer.C:
		}
	}
}

func isBusy(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// List returns matching records, newest first.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]repository.Record, error) {
	var (
		where []string
		args  []any
	)
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(opts.Kind))
	}
	if !opts.Actor.IsZero() {
		where = append(where, "actor = ?")
		args = append(args, opts.Actor.String())
	}
	if !opts.Entity.IsZero() {
		where = append(where, "entity = ?")
		args = append(args, opts.Entity.String())
	}
	if !opts.Since.IsZero() {
		where = append(where, "at >= ?")
		args = append(args, opts.Since.UTC())
	}

	query := "SELECT id, recorded, payload FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(opts.Offset, 0))

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	records := []repository.Record{}
	for rows.Next() {
		var (
			rec     repository.Record
			payload []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Recorded, &payload); err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		if err := cbor.Unmarshal(payload, &rec.Event); err != nil {
			return nil, fmt.Errorf("sqlite: decoding event %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}
	return records, nil
}

func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting events: %w", err)
	}
	return n, nil
}
