package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/models"
)

func (s *Store) UpsertUser(ctx context.Context, id int64, firstName string, lastName, username *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (user_id, first_name, last_name, username, weight)
		VALUES (?, ?, ?, ?, NULL)`,
		id, firstName, nullString(lastName), nullString(username))
	if err != nil {
		return false, apperr.Store("upsert user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Store("upsert user", err)
	}
	return n == 1, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, first_name, last_name, username, weight
		FROM users WHERE user_id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.User{}, apperr.Store("get user", err)
	}
	return u, nil
}

func (s *Store) SetUserWeight(ctx context.Context, id int64, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE users SET weight = ? WHERE user_id = ?", weight, id)
	if err != nil {
		return apperr.Store("set weight", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store("set weight", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// DeleteUser removes the history rows and the user row together. The schema
// declares no ON DELETE CASCADE, so both statements are explicit.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Store("delete user", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM weight_history WHERE user_id = ?", id); err != nil {
		return apperr.Store("delete user", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE user_id = ?", id); err != nil {
		return apperr.Store("delete user", err)
	}
	return apperr.Store("delete user", tx.Commit())
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, first_name, last_name, username, weight
		FROM users ORDER BY user_id`)
	if err != nil {
		return nil, apperr.Store("list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Store("list users", err)
		}
		users = append(users, u)
	}
	return users, apperr.Store("list users", rows.Err())
}

func (s *Store) ListAllUsersWithWeight(ctx context.Context) ([]models.UserWeight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT user_id, weight FROM users WHERE weight IS NOT NULL ORDER BY user_id")
	if err != nil {
		return nil, apperr.Store("list weights", err)
	}
	defer rows.Close()

	out := []models.UserWeight{}
	for rows.Next() {
		var uw models.UserWeight
		if err := rows.Scan(&uw.UserID, &uw.Weight); err != nil {
			return nil, apperr.Store("list weights", err)
		}
		out = append(out, uw)
	}
	return out, apperr.Store("list weights", rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	var firstName, lastName, username sql.NullString
	var weight sql.NullFloat64
	if err := row.Scan(&u.ID, &firstName, &lastName, &username, &weight); err != nil {
		return models.User{}, err
	}
	u.FirstName = firstName.String
	if lastName.Valid {
		u.LastName = &lastName.String
	}
	if username.Valid {
		u.Username = &username.String
	}
	if weight.Valid {
		u.Weight = &weight.Float64
	}
	return u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
