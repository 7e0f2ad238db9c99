package post

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = `id, caption, url, file_type, file_name, created_at, user_id`

// PostgresRepository persists posts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a repository over the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts p in a single statement; the database assigns id and created_at.
func (r *PostgresRepository) Create(ctx context.Context, p NewPost) (*Post, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO posts (user_id, caption, url, file_type, file_name)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+postColumns,
		p.UserID, p.Caption, p.URL, string(p.FileType), p.FileName,
	)
	created, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return created, nil
}

// List returns every post, newest first. Posts sharing a timestamp keep
// insertion order, newest insert first.
func (r *PostgresRepository) List(ctx context.Context) ([]Post, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+postColumns+`
		 FROM posts
		 ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// GetByID fetches a single post.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	p, err := scanPost(r.db.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// Delete removes the post with the given id and commits.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

func scanPost(row pgx.Row) (*Post, error) {
	p := &Post{}
	var fileType string
	if err := row.Scan(&p.ID, &p.Caption, &p.URL, &fileType, &p.FileName, &p.CreatedAt, &p.UserID); err != nil {
		return nil, err
	}
	p.FileType = FileType(fileType)
	return p, nil
}
