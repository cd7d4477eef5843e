package persist

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
	"github.com/sasha-s/go-deadlock"

	"github.com/al007ex/moomoo-clone/internal/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	tick INTEGER PRIMARY KEY,
	saved_at INTEGER NOT NULL,
	player_count INTEGER NOT NULL,
	state_blob BLOB NOT NULL
);
`

// DefaultRetain is the number of snapshots the archive keeps.
const DefaultRetain = 64

// SQLiteArchive keeps lz4-compressed msgpack snapshots in a single table.
type SQLiteArchive struct {
	dsn    string
	retain int

	mu       deadlock.RWMutex
	db       *sql.DB
	lastTick uint64
	hasLast  bool
}

// NewSQLiteArchive prepares an archive at dsn keeping the newest retain
// snapshots. A non-positive retain selects DefaultRetain.
func NewSQLiteArchive(dsn string, retain int) *SQLiteArchive {
	if retain <= 0 {
		retain = DefaultRetain
	}
	return &SQLiteArchive{dsn: dsn, retain: retain}
}

func (a *SQLiteArchive) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite3", a.dsn)
	if err != nil {
		return eris.Wrapf(err, "open archive %q", a.dsn)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return eris.Wrap(err, "ping archive")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return eris.Wrap(err, "create archive schema")
	}
	var tick sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(tick) FROM snapshots").Scan(&tick); err != nil {
		db.Close()
		return eris.Wrap(err, "read archive head")
	}
	a.db = db
	a.lastTick, a.hasLast = uint64(tick.Int64), tick.Valid
	return nil
}

func (a *SQLiteArchive) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return eris.Wrap(err, "close archive")
	}
	return nil
}

// Save stores snapshot under its tick, replacing an earlier save of the same
// tick, and trims rows beyond the retention window.
func (a *SQLiteArchive) Save(ctx context.Context, snapshot state.Snapshot) error {
	blob, err := state.EncodeSnapshot(snapshot)
	if err != nil {
		return eris.Wrapf(err, "encode snapshot %d", snapshot.Tick)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return ErrNotConnected
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin save")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO snapshots (tick, saved_at, player_count, state_blob) VALUES (?, ?, ?, ?)",
		int64(snapshot.Tick), time.Now().UnixMilli(), len(snapshot.Players), blob,
	); err != nil {
		return eris.Wrapf(err, "insert snapshot %d", snapshot.Tick)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM snapshots WHERE tick NOT IN (SELECT tick FROM snapshots ORDER BY tick DESC LIMIT ?)",
		a.retain,
	); err != nil {
		return eris.Wrap(err, "trim archive")
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "commit save")
	}
	if !a.hasLast || snapshot.Tick > a.lastTick {
		a.lastTick, a.hasLast = snapshot.Tick, true
	}
	return nil
}

func (a *SQLiteArchive) Latest(ctx context.Context) (state.Snapshot, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return state.Snapshot{}, false, ErrNotConnected
	}
	var blob []byte
	err := a.db.QueryRowContext(ctx, "SELECT state_blob FROM snapshots ORDER BY tick DESC LIMIT 1").Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return state.Snapshot{}, false, nil
	}
	if err != nil {
		return state.Snapshot{}, false, eris.Wrap(err, "query latest snapshot")
	}
	snapshot, err := state.DecodeSnapshot(blob)
	if err != nil {
		return state.Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// Count reports the number of stored snapshots.
func (a *SQLiteArchive) Count(ctx context.Context) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return 0, ErrNotConnected
	}
	var n int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&n); err != nil {
		return 0, eris.Wrap(err, "count snapshots")
	}
	return n, nil
}

// LastTick reports the newest tick written or found on Connect.
func (a *SQLiteArchive) LastTick() (uint64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastTick, a.hasLast
}
