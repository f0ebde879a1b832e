package postgres

import (
	"context"
	"fmt"

	"github.com/julianstephens/fitbot/internal/constants"
	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/models"
)

func (s *Store) AppendWeightEntry(ctx context.Context, entry models.WeightEntry) error {
	source := entry.Source
	if source == "" {
		source = constants.SourceLog
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO weight_history (user_id, date, weight, source) VALUES ($1, $2, $3, $4)",
		entry.UserID, entry.Date, entry.Weight, source)
	return wrap("append weight", err)
}

// AppendSnapshot share-locks the user row, so a concurrent DeleteUser either
// waits for the insert and removes it, or wins and leaves nothing to copy.
func (s *Store) AppendSnapshot(ctx context.Context, userID int64, date string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO weight_history (user_id, date, weight, source)
		SELECT user_id, $1, weight, $2 FROM users
		WHERE user_id = $3 AND weight IS NOT NULL
		FOR SHARE`,
		date, constants.SourceSnapshot, userID)
	if err != nil {
		return false, wrap("append snapshot", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("append snapshot", err)
	}
	return n > 0, nil
}

func (s *Store) RecordWeight(ctx context.Context, userID int64, date string, weight float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("record weight", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "UPDATE users SET weight = $1 WHERE user_id = $2", weight, userID)
	if err != nil {
		return wrap("record weight", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("record weight", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userID, apperr.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO weight_history (user_id, date, weight, source) VALUES ($1, $2, $3, $4)",
		userID, date, weight, constants.SourceLog); err != nil {
		return wrap("record weight", err)
	}
	return wrap("record weight", tx.Commit())
}

func (s *Store) ListWeightHistory(ctx context.Context, userID int64) ([]models.WeightEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, weight, source
		FROM weight_history WHERE user_id = $1
		ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, wrap("list history", err)
	}
	defer rows.Close()

	entries := []models.WeightEntry{}
	for rows.Next() {
		var e models.WeightEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Weight, &e.Source); err != nil {
			return nil, wrap("list history", err)
		}
		entries = append(entries, e)
	}
	return entries, wrap("list history", rows.Err())
}
