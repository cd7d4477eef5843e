// Package persist stores periodic snapshots of the simulation. The default
// adapter keeps nothing; the SQLite archive keeps compressed snapshots keyed
// by tick.
package persist

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/al007ex/moomoo-clone/internal/state"
)

var (
	// ErrNotConnected reports use of an archive before Connect.
	ErrNotConnected = eris.New("archive is not connected")
)

// Adapter is a snapshot store with an explicit connection lifecycle.
type Adapter interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Save(ctx context.Context, snapshot state.Snapshot) error
	// Latest returns the newest stored snapshot, reporting false when the
	// store is empty.
	Latest(ctx context.Context) (state.Snapshot, bool, error)
}

// NullAdapter accepts every call and stores nothing.
type NullAdapter struct{}

func (NullAdapter) Connect(context.Context) error { return nil }

func (NullAdapter) Disconnect(context.Context) error { return nil }

func (NullAdapter) Save(context.Context, state.Snapshot) error { return nil }

func (NullAdapter) Latest(context.Context) (state.Snapshot, bool, error) {
	return state.Snapshot{}, false, nil
}

// Open picks the SQLite archive for a non-empty dsn and the null adapter
// otherwise.
func Open(dsn string, retain int) Adapter {
	if dsn == "" {
		return NullAdapter{}
	}
	return NewSQLiteArchive(dsn, retain)
}
