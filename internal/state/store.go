// Package state persists the set of identities that have already been
// published. It is the sole mechanism preventing re-publication across
// runs.
package state

import (
	"context"

	"site2tg/internal/config"
)

// Store is the durable seen set. Record must be durable by the time it
// returns; identities are never removed automatically.
type Store interface {
	Contains(ctx context.Context, identity string) (bool, error)
	Record(ctx context.Context, identity string) error
	Close() error
}

// Open builds the configured backend. dryRun keeps a store that does
// not exist yet entirely off disk; callers in dry-run never call
// Record.
func Open(backend, path string, dryRun bool) (Store, error) {
	if backend == config.BackendSQLite {
		return OpenSQL(path, dryRun)
	}
	return OpenFile(path)
}
