package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/models"
)

func (s *Store) UpsertUser(ctx context.Context, id int64, firstName string, lastName, username *string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, first_name, last_name, username, weight)
		VALUES ($1, $2, $3, $4, NULL)
		ON CONFLICT (user_id) DO NOTHING`,
		id, firstName, nullString(lastName), nullString(username))
	if err != nil {
		return false, wrap("upsert user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("upsert user", err)
	}
	return n == 1, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, first_name, last_name, username, weight
		FROM users WHERE user_id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.User{}, wrap("get user", err)
	}
	return u, nil
}

func (s *Store) SetUserWeight(ctx context.Context, id int64, weight float64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET weight = $1 WHERE user_id = $2", weight, id)
	if err != nil {
		return wrap("set weight", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("set weight", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// DeleteUser removes the user row first. The row lock it takes makes
// RecordWeight and AppendSnapshot on the same user wait, and once this commits
// they find no user, so no history row can outlive the delete.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("delete user", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE user_id = $1", id); err != nil {
		return wrap("delete user", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM weight_history WHERE user_id = $1", id); err != nil {
		return wrap("delete user", err)
	}
	return wrap("delete user", tx.Commit())
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, first_name, last_name, username, weight
		FROM users ORDER BY user_id`)
	if err != nil {
		return nil, wrap("list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap("list users", err)
		}
		users = append(users, u)
	}
	return users, wrap("list users", rows.Err())
}

func (s *Store) ListAllUsersWithWeight(ctx context.Context) ([]models.UserWeight, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id, weight FROM users WHERE weight IS NOT NULL ORDER BY user_id")
	if err != nil {
		return nil, wrap("list weights", err)
	}
	defer rows.Close()

	out := []models.UserWeight{}
	for rows.Next() {
		var uw models.UserWeight
		if err := rows.Scan(&uw.UserID, &uw.Weight); err != nil {
			return nil, wrap("list weights", err)
		}
		out = append(out, uw)
	}
	return out, wrap("list weights", rows.Err())
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

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
