// Package memory implements an in-memory store for development and testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/julianstephens/fitbot/internal/constants"
	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/models"
)

// DB implements an in-memory database storage.
type DB struct {
	mu      sync.RWMutex
	users   map[int64]models.User
	history []models.WeightEntry

	historyIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		users: make(map[int64]models.User),
	}
}

func (db *DB) Init(ctx context.Context) error         { return nil }
func (db *DB) Load(ctx context.Context) error         { return nil }
func (db *DB) Close() error                           { return nil }
func (db *DB) Ping(ctx context.Context) error         { return nil }
func (db *DB) EnsureSchema(ctx context.Context) error { return nil }
func (db *DB) GetConfigPath() string                  { return constants.MemoryDSN }

func (db *DB) SchemaVersion(ctx context.Context) (int, int, error) {
	return 0, 0, nil
}

// --- Users ---

func (db *DB) UpsertUser(ctx context.Context, id int64, firstName string, lastName, username *string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[id]; ok {
		return false, nil
	}
	db.users[id] = models.User{
		ID:        id,
		FirstName: firstName,
		LastName:  cloneString(lastName),
		Username:  cloneString(username),
	}
	return true, nil
}

// GetUser returns a copy so callers cannot mutate stored state.
func (db *DB) GetUser(ctx context.Context, id int64) (models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	u, ok := db.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (db *DB) SetUserWeight(ctx context.Context, id int64, weight float64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.setWeightLocked(id, weight)
}

func (db *DB) setWeightLocked(id int64, weight float64) error {
	u, ok := db.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	u.Weight = &weight
	db.users[id] = u
	return nil
}

func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.users, id)
	kept := db.history[:0]
	for _, e := range db.history {
		if e.UserID != id {
			kept = append(kept, e)
		}
	}
	db.history = kept
	return nil
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]models.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (db *DB) ListAllUsersWithWeight(ctx context.Context) ([]models.UserWeight, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := []models.UserWeight{}
	for _, u := range db.users {
		if u.Weight != nil {
			out = append(out, models.UserWeight{UserID: u.ID, Weight: *u.Weight})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// --- Weight history ---

func (db *DB) AppendWeightEntry(ctx context.Context, entry models.WeightEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.appendLocked(entry)
	return nil
}

func (db *DB) AppendSnapshot(ctx context.Context, userID int64, date string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[userID]
	if !ok || u.Weight == nil {
		return false, nil
	}
	db.appendLocked(models.WeightEntry{UserID: userID, Date: date, Weight: *u.Weight, Source: constants.SourceSnapshot})
	return true, nil
}

func (db *DB) appendLocked(entry models.WeightEntry) {
	db.historyIDCounter++
	entry.ID = db.historyIDCounter
	if entry.Source == "" {
		entry.Source = constants.SourceLog
	}
	db.history = append(db.history, entry)
}

func (db *DB) RecordWeight(ctx context.Context, userID int64, date string, weight float64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.setWeightLocked(userID, weight); err != nil {
		return err
	}
	db.appendLocked(models.WeightEntry{UserID: userID, Date: date, Weight: weight, Source: constants.SourceLog})
	return nil
}

// ListWeightHistory lists entries newest first, ties broken by insertion order.
func (db *DB) ListWeightHistory(ctx context.Context, userID int64) ([]models.WeightEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := []models.WeightEntry{}
	for _, e := range db.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneUser(u models.User) models.User {
	u.LastName = cloneString(u.LastName)
	u.Username = cloneString(u.Username)
	if u.Weight != nil {
		w := *u.Weight
		u.Weight = &w
	}
	return u
}
