package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/fitbot/internal/constants"
	"github.com/julianstephens/fitbot/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (string, *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "fitbot.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if _, err := store.UpsertUser(ctx, 42, "Ivan", nil, nil); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := store.RecordWeight(ctx, 42, "2024-03-04", 80.5); err != nil {
		t.Fatalf("RecordWeight: %v", err)
	}
	return dbPath, store
}

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	cur := start.Add(-step)
	return func() time.Time {
		cur = cur.Add(step)
		return cur
	}
}

func TestCreateBackup(t *testing.T) {
	dbPath, _ := setupTestDB(t)
	m := NewManager(dbPath)

	path, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(filepath.Dir(dbPath), constants.BackupDirName) {
		t.Errorf("backup written to %s, want backups dir", path)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		t.Errorf("unexpected backup name %q", name)
	}

	copyStore := sqlite.NewStore(path)
	if err := copyStore.Load(context.Background()); err != nil {
		t.Fatalf("backup not loadable: %v", err)
	}
	defer copyStore.Close()
	hist, err := copyStore.ListWeightHistory(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListWeightHistory: %v", err)
	}
	if len(hist) != 1 || hist[0].Weight != 80.5 {
		t.Errorf("backup history = %+v, want one 80.5 entry", hist)
	}
}

func TestCreateBackupMissingDatabase(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := m.Create(context.Background()); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestBackupRotation(t *testing.T) {
	dbPath, _ := setupTestDB(t)
	m := NewManager(dbPath)
	m.keep = 3
	m.now = fixedClock(time.Date(2024, 3, 4, 10, 0, 0, 0, time.Local), time.Hour)

	var created []string
	for i := 0; i < 5; i++ {
		p, err := m.Create(context.Background())
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		created = append(created, p)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("got %d backups, want 3", len(backups))
	}
	if backups[0].Path != created[4] {
		t.Errorf("newest backup = %s, want %s", backups[0].Path, created[4])
	}
	for _, old := range created[:2] {
		if exists(old) {
			t.Errorf("old backup %s not rotated", old)
		}
	}
}

func TestUniqueBackupFilenames(t *testing.T) {
	dbPath, _ := setupTestDB(t)
	m := NewManager(dbPath)
	m.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.Local) }

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		p, err := m.Create(context.Background())
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		if seen[p] {
			t.Fatalf("duplicate backup path %s", p)
		}
		seen[p] = true
	}
	backups, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 4 {
		t.Errorf("List() returned %d backups, want 4", len(backups))
	}
}

func TestListBackups(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "fitbot.db"))

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(backups) != 0 {
		t.Fatalf("expected no backups, got %d", len(backups))
	}

	if err := os.MkdirAll(m.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"fitbot-20240301-0900.db",
		"fitbot-20240302-090000-1.db",
		"fitbot-20240303-0900.db",
		"notes.txt",
		"fitbot-garbage.db",
	} {
		if err := os.WriteFile(filepath.Join(m.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err = m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"fitbot-20240303-0900.db", "fitbot-20240302-090000-1.db", "fitbot-20240301-0900.db"}
	if len(backups) != len(want) {
		t.Fatalf("got %d backups, want %d", len(backups), len(want))
	}
	for i, w := range want {
		if filepath.Base(backups[i].Path) != w {
			t.Errorf("backups[%d] = %s, want %s", i, filepath.Base(backups[i].Path), w)
		}
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"fitbot-20240304-1015.db", true},
		{"fitbot-20240304-101530.db", true},
		{"fitbot-20240304-101530-7.db", true},
		{"other-20240304-1015.db", false},
		{"fitbot-20240304-1015.sqlite", false},
		{"fitbot-x.db", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := parseName(tt.name); ok != tt.ok {
				t.Errorf("parseName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
		})
	}
}

func TestRestoreBackup(t *testing.T) {
	ctx := context.Background()
	dbPath, store := setupTestDB(t)
	m := NewManager(dbPath)
	m.now = fixedClock(time.Date(2024, 3, 4, 10, 0, 0, 0, time.Local), time.Minute)

	backupPath, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.DeleteUser(ctx, 42); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	store.Close()

	previous, err := m.Restore(ctx, backupPath)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if previous == "" || !exists(previous) {
		t.Errorf("expected pre-restore backup, got %q", previous)
	}

	restored := sqlite.NewStore(dbPath)
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load restored: %v", err)
	}
	defer restored.Close()
	if _, err := restored.GetUser(ctx, 42); err != nil {
		t.Errorf("user missing after restore: %v", err)
	}
}

func TestRestoreRejectsInvalidBackup(t *testing.T) {
	dbPath, _ := setupTestDB(t)
	m := NewManager(dbPath)

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(t.TempDir(), "nope.db")},
		{"corrupted", bogus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Restore(context.Background(), tt.path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
