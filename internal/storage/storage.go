package storage

import (
	"strings"

	"github.com/julianstephens/fitbot/internal/constants"
	"github.com/julianstephens/fitbot/internal/storage/memory"
	"github.com/julianstephens/fitbot/internal/storage/postgres"
	"github.com/julianstephens/fitbot/internal/storage/sqlite"
)

var (
	_ Provider = (*sqlite.Store)(nil)
	_ Provider = (*postgres.Store)(nil)
	_ Provider = (*memory.DB)(nil)
)

// Backend names, as reported by Kind.
const (
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindMemory   = "memory"
)

// Kind picks the backend for dsn without opening it.
func Kind(dsn string) string {
	switch {
	case postgres.IsConnString(dsn):
		return KindPostgres
	case strings.HasPrefix(dsn, constants.MemoryDSN):
		return KindMemory
	default:
		return KindSQLite
	}
}

// Open returns an unopened Provider for dsn. Call Init or Load before use.
func Open(dsn string) Provider {
	switch Kind(dsn) {
	case KindPostgres:
		return postgres.New(dsn)
	case KindMemory:
		return memory.New()
	default:
		return sqlite.NewStore(dsn)
	}
}
