package learning

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("learning content not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const contentColumns = "id, title, description, type, subtype, content, difficulty, duration, image_url, created_at"

func scanContent(s interface {
	Scan(dest ...interface{}) error
}) (*Content, error) {
	c := &Content{}
	err := s.Scan(&c.ID, &c.Title, &c.Description, &c.Type, &c.Subtype, &c.Content, &c.Difficulty, &c.Duration, &c.ImageURL, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) GetContent(ctx context.Context, id int) (*Content, error) {
	query := "SELECT " + contentColumns + " FROM learning_content WHERE id = $1"
	c, err := scanContent(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListContent filters by type and subtype when non-empty.
func (r *Repository) ListContent(ctx context.Context, contentType, subtype string) ([]*Content, error) {
	query := "SELECT " + contentColumns + " FROM learning_content"
	args := []interface{}{}
	switch {
	case contentType != "" && subtype != "":
		query += " WHERE type = $1 AND subtype = $2"
		args = append(args, contentType, subtype)
	case contentType != "":
		query += " WHERE type = $1"
		args = append(args, contentType)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contents := []*Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

func (r *Repository) CreateContent(ctx context.Context, c *Content) (*Content, error) {
	query := `INSERT INTO learning_content (title, description, type, subtype, content, difficulty, duration, image_url)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
              RETURNING ` + contentColumns
	return scanContent(r.db.QueryRowContext(ctx, query,
		c.Title, c.Description, c.Type, c.Subtype, []byte(c.Content), c.Difficulty, c.Duration, c.ImageURL))
}

func (r *Repository) UpdateContent(ctx context.Context, id int, c *Content) (*Content, error) {
	query := `UPDATE learning_content SET
                title       = COALESCE(NULLIF($2, ''), title),
                description = COALESCE(NULLIF($3, ''), description),
                type        = COALESCE(NULLIF($4, ''), type),
                subtype     = COALESCE($5, subtype),
                content     = COALESCE($6, content),
                difficulty  = COALESCE(NULLIF($7, ''), difficulty),
                duration    = COALESCE($8, duration),
                image_url   = COALESCE($9, image_url)
              WHERE id = $1
              RETURNING ` + contentColumns
	var body interface{}
	if len(c.Content) > 0 {
		body = []byte(c.Content)
	}
	updated, err := scanContent(r.db.QueryRowContext(ctx, query,
		id, c.Title, c.Description, c.Type, c.Subtype, body, c.Difficulty, c.Duration, c.ImageURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return updated, err
}

func (r *Repository) DeleteContent(ctx context.Context, id int) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM learning_content WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) ListProgress(ctx context.Context, userID int) ([]*Progress, error) {
	query := `SELECT id, user_id, content_id, completion_status, progress, last_accessed
              FROM user_progress WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := []*Progress{}
	for rows.Next() {
		p := &Progress{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.ContentID, &p.CompletionStatus, &p.Progress, &p.LastAccessed); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

// UpsertProgress keeps one row per (user, content) and refreshes
// last_accessed on every write.
func (r *Repository) UpsertProgress(ctx context.Context, userID int, req *UpsertProgressRequest) (*Progress, error) {
	query := `INSERT INTO user_progress (user_id, content_id, completion_status, progress)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (user_id, content_id) DO UPDATE SET
                completion_status = EXCLUDED.completion_status,
                progress          = EXCLUDED.progress,
                last_accessed     = CURRENT_TIMESTAMP
              RETURNING id, user_id, content_id, completion_status, progress, last_accessed`
	p := &Progress{}
	err := r.db.QueryRowContext(ctx, query, userID, req.ContentID, req.CompletionStatus, req.Progress).
		Scan(&p.ID, &p.UserID, &p.ContentID, &p.CompletionStatus, &p.Progress, &p.LastAccessed)
	if err != nil {
		return nil, err
	}
	return p, nil
}
