package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

var ErrNotFound = errors.New("user not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = "id, username, nickname, password, avatar, is_admin, preferences, streak"

func scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	var prefs []byte
	err := row.Scan(&u.ID, &u.Username, &u.Nickname, &u.Password, &u.Avatar, &u.IsAdmin, &prefs, &u.Streak)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Preferences = DefaultPreferences()
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &u.Preferences); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *User) (*User, error) {
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return nil, err
	}
	query := `INSERT INTO users (username, nickname, password, avatar, preferences)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, u.Username, u.Nickname, u.Password, u.Avatar, prefs).Scan(&u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int) (*User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1"
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = $1"
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

// UpdateUser applies a partial update and returns the fresh row.
func (r *Repository) UpdateUser(ctx context.Context, id int, upd *UpdateRequest) (*User, error) {
	var prefs []byte
	if upd.Preferences != nil {
		var err error
		prefs, err = json.Marshal(upd.Preferences)
		if err != nil {
			return nil, err
		}
	}
	query := `UPDATE users SET
                nickname    = COALESCE($2, nickname),
                avatar      = COALESCE($3, avatar),
                preferences = COALESCE($4, preferences),
                streak      = COALESCE($5, streak)
              WHERE id = $1
              RETURNING ` + userColumns
	var prefsArg interface{}
	if prefs != nil {
		prefsArg = prefs
	}
	return scanUser(r.db.QueryRowContext(ctx, query, id, upd.Nickname, upd.Avatar, prefsArg, upd.Streak))
}
