package sqlite

import (
	"context"
	"database/sql"

	"github.com/simple-event-calendar/server/internal/storage"
)

type CommentRepository struct {
	q querier
}

const commentColumns = `id, id_event, id_user, author, comment, created_at`

func (r *CommentRepository) Create(ctx context.Context, params storage.CreateCommentParams) (storage.Comment, error) {
	row := r.q.QueryRowContext(ctx, `
INSERT INTO event_comments (id_event, id_user, author, comment, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING `+commentColumns,
		params.EventID, nullInt(params.UserID), params.Author, params.Text, encodeTime(params.CreatedAt))
	comment, err := scanComment(row)
	if err != nil {
		return storage.Comment{}, mapError("create comment", err)
	}
	return comment, nil
}

func (r *CommentRepository) ListByEvent(ctx context.Context, eventID int64) ([]storage.Comment, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT `+commentColumns+`
  FROM event_comments
 WHERE id_event = ?
 ORDER BY created_at DESC, id DESC
`, eventID)
	if err != nil {
		return nil, mapError("list comments", err)
	}
	defer func() { _ = rows.Close() }()

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
	var (
		c         storage.Comment
		userID    sql.NullInt64
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.EventID, &userID, &c.Author, &c.Text, &createdAt); err != nil {
		return storage.Comment{}, err
	}
	t, err := decodeTime(createdAt)
	if err != nil {
		return storage.Comment{}, err
	}
	c.CreatedAt = t
	c.UserID = intPtr(userID)
	return c, nil
}
