package vocabulary

import (
	"context"
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListWords(ctx context.Context, userID int) ([]*Word, error) {
	query := `SELECT id, user_id, word, translation, pronunciation, example, created_at
              FROM user_vocabulary WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	words := []*Word{}
	for rows.Next() {
		v := &Word{}
		if err := rows.Scan(&v.ID, &v.UserID, &v.Word, &v.Translation, &v.Pronunciation, &v.Example, &v.CreatedAt); err != nil {
			return nil, err
		}
		words = append(words, v)
	}
	return words, rows.Err()
}

func (r *Repository) AddWord(ctx context.Context, userID int, req *AddWordRequest) (*Word, error) {
	query := `INSERT INTO user_vocabulary (user_id, word, translation, pronunciation, example)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id, user_id, word, translation, pronunciation, example, created_at`
	v := &Word{}
	err := r.db.QueryRowContext(ctx, query, userID, req.Word, req.Translation, req.Pronunciation, req.Example).
		Scan(&v.ID, &v.UserID, &v.Word, &v.Translation, &v.Pronunciation, &v.Example, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteWord removes a card only if it belongs to userID.
func (r *Repository) DeleteWord(ctx context.Context, userID, id int) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM user_vocabulary WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
