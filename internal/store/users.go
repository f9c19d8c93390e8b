package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/verte-zerg/ttj/internal/model"
)

// CurrentUser returns the logged-in profile, or nil for a guest.
func (s *Store) CurrentUser(ctx context.Context) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT u.id, u.name, u.created_at
		 FROM active_user a JOIN users u ON u.id = a.user_id
		 WHERE a.slot = 1`)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login makes the named profile current, creating it on first use.
func (s *Store) Login(ctx context.Context, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	user, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM users WHERE name = ?`, name))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		user = &model.User{
			ID:        model.UserID(ulid.Make().String()),
			Name:      name,
			CreatedAt: s.now().UTC(),
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)`,
			string(user.ID), user.Name, formatTime(user.CreatedAt)); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO active_user (slot, user_id) VALUES (1, ?)
		 ON CONFLICT(slot) DO UPDATE SET user_id = excluded.user_id`,
		string(user.ID)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout clears the current profile. Stored data is kept.
func (s *Store) Logout(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM active_user WHERE slot = 1`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		id        string
		user      model.User
		createdAt string
	)
	if err := row.Scan(&id, &user.Name, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	user.ID = model.UserID(id)
	user.CreatedAt = parsed
	return &user, nil
}
