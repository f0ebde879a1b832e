package storage

import (
	"path/filepath"
	"testing"

	"github.com/julianstephens/fitbot/internal/storage/memory"
	"github.com/julianstephens/fitbot/internal/storage/postgres"
	"github.com/julianstephens/fitbot/internal/storage/sqlite"
)

func TestOpenSelectsBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fitbot.db")
	tests := []struct {
		dsn  string
		kind string
	}{
		{dbPath, KindSQLite},
		{"postgres://localhost/fitbot", KindPostgres},
		{"postgresql://localhost/fitbot", KindPostgres},
		{"memory://", KindMemory},
	}
	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.dsn, func(t *testing.T) {
			if got := Kind(tt.dsn); got != tt.kind {
				t.Fatalf("Kind(%q) = %q, want %q", tt.dsn, got, tt.kind)
			}
			p := Open(tt.dsn)
			var ok bool
			switch tt.kind {
			case KindSQLite:
				_, ok = p.(*sqlite.Store)
			case KindPostgres:
				_, ok = p.(*postgres.Store)
			case KindMemory:
				_, ok = p.(*memory.DB)
			}
			if !ok {
				t.Errorf("Open(%q) returned %T", tt.dsn, p)
			}
		})
	}
}
