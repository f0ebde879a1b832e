package sqlite

import (
	"context"
	"fmt"

	"github.com/julianstephens/fitbot/internal/constants"
	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/models"
)

func (s *Store) AppendWeightEntry(ctx context.Context, entry models.WeightEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := entry.Source
	if source == "" {
		source = constants.SourceLog
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO weight_history (user_id, date, weight, source) VALUES (?, ?, ?, ?)",
		entry.UserID, entry.Date, entry.Weight, source)
	return apperr.Store("append weight", err)
}

func (s *Store) AppendSnapshot(ctx context.Context, userID int64, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO weight_history (user_id, date, weight, source)
		SELECT user_id, ?, weight, ? FROM users
		WHERE user_id = ? AND weight IS NOT NULL`,
		date, constants.SourceSnapshot, userID)
	if err != nil {
		return false, apperr.Store("append snapshot", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Store("append snapshot", err)
	}
	return n > 0, nil
}

func (s *Store) RecordWeight(ctx context.Context, userID int64, date string, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Store("record weight", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "UPDATE users SET weight = ? WHERE user_id = ?", weight, userID)
	if err != nil {
		return apperr.Store("record weight", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store("record weight", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userID, apperr.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO weight_history (user_id, date, weight, source) VALUES (?, ?, ?, ?)",
		userID, date, weight, constants.SourceLog); err != nil {
		return apperr.Store("record weight", err)
	}
	return apperr.Store("record weight", tx.Commit())
}

// ListWeightHistory returns the user's entries newest first. rowid breaks
// ties between entries on the same day.
func (s *Store) ListWeightHistory(ctx context.Context, userID int64) ([]models.WeightEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, user_id, date, weight, source
		FROM weight_history WHERE user_id = ?
		ORDER BY date DESC, rowid DESC`, userID)
	if err != nil {
		return nil, apperr.Store("list history", err)
	}
	defer rows.Close()

	entries := []models.WeightEntry{}
	for rows.Next() {
		var e models.WeightEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Weight, &e.Source); err != nil {
			return nil, apperr.Store("list history", err)
		}
		entries = append(entries, e)
	}
	return entries, apperr.Store("list history", rows.Err())
}
