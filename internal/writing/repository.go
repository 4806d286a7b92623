package writing

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("writing not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const writingColumns = "id, user_id, prompt_id, title, content, translation, status, feedback, created_at, updated_at"

func scanWriting(s interface {
	Scan(dest ...interface{}) error
}) (*Writing, error) {
	wr := &Writing{}
	err := s.Scan(&wr.ID, &wr.UserID, &wr.PromptID, &wr.Title, &wr.Content, &wr.Translation, &wr.Status, &wr.Feedback, &wr.CreatedAt, &wr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return wr, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int) ([]*Writing, error) {
	query := "SELECT " + writingColumns + " FROM user_writings WHERE user_id = $1 ORDER BY updated_at DESC"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	writings := []*Writing{}
	for rows.Next() {
		wr, err := scanWriting(rows)
		if err != nil {
			return nil, err
		}
		writings = append(writings, wr)
	}
	return writings, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int) (*Writing, error) {
	query := "SELECT " + writingColumns + " FROM user_writings WHERE id = $1"
	wr, err := scanWriting(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return wr, err
}

func (r *Repository) Create(ctx context.Context, userID int, req *CreateRequest) (*Writing, error) {
	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	query := `INSERT INTO user_writings (user_id, prompt_id, title, content, translation, status)
              VALUES ($1, $2, $3, $4, $5, $6)
              RETURNING ` + writingColumns
	return scanWriting(r.db.QueryRowContext(ctx, query, userID, req.PromptID, req.Title, req.Content, req.Translation, status))
}

func (r *Repository) Update(ctx context.Context, id int, upd *UpdateRequest) (*Writing, error) {
	query := `UPDATE user_writings SET
                title       = COALESCE($2, title),
                content     = COALESCE($3, content),
                translation = COALESCE($4, translation),
                status      = COALESCE($5, status),
                updated_at  = CURRENT_TIMESTAMP
              WHERE id = $1
              RETURNING ` + writingColumns
	wr, err := scanWriting(r.db.QueryRowContext(ctx, query, id, upd.Title, upd.Content, upd.Translation, upd.Status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return wr, err
}

// SetFeedback stores admin feedback and advances the status to reviewed.
func (r *Repository) SetFeedback(ctx context.Context, id int, feedback string) (*Writing, error) {
	query := `UPDATE user_writings SET
                feedback   = $2,
                status     = '` + StatusReviewed + `',
                updated_at = CURRENT_TIMESTAMP
              WHERE id = $1
              RETURNING ` + writingColumns
	wr, err := scanWriting(r.db.QueryRowContext(ctx, query, id, feedback))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return wr, err
}

func (r *Repository) Delete(ctx context.Context, id int) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM user_writings WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
