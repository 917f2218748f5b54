package postgres

import (
	"context"

	"github.com/simple-event-calendar/server/internal/storage"
)

type CommentRepository struct {
	q queryer
}

const commentColumns = `id, id_event, id_user, author, comment, created_at`

func (r *CommentRepository) Create(ctx context.Context, params storage.CreateCommentParams) (storage.Comment, error) {
	row := r.q.QueryRow(ctx, `
INSERT INTO event_comments (id_event, id_user, author, comment, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+commentColumns,
		params.EventID, params.UserID, params.Author, params.Text, params.CreatedAt)
	c, err := scanComment(row)
	if err != nil {
		return storage.Comment{}, mapError("create comment", err)
	}
	return c, nil
}

func (r *CommentRepository) ListByEvent(ctx context.Context, eventID int64) ([]storage.Comment, error) {
	rows, err := r.q.Query(ctx, `
SELECT `+commentColumns+`
  FROM event_comments
 WHERE id_event = $1
 ORDER BY created_at DESC, id DESC
`, eventID)
	if err != nil {
		return nil, mapError("list comments", err)
	}
	defer rows.Close()

	comments := make([]storage.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, mapError("scan comment", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list comments", err)
	}
	return comments, nil
}

func scanComment(row rowScanner) (storage.Comment, error) {
	var c storage.Comment
	err := row.Scan(&c.ID, &c.EventID, &c.UserID, &c.Author, &c.Text, &c.CreatedAt)
	return c, err
}
