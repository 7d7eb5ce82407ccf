package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/souvik017/livefeed/internal/domain"
)

// postColumns joins every post with its author so callers always get the
// owner inlined, matching what feed reads and broadcast payloads need.
const postColumns = `
	p.id, p.author_id, p.content, p.media_type, p.image_url, p.video_url, p.created_at, p.updated_at,
	u.id, u.uid, u.name, u.email, u.avatar, u.created_at, u.updated_at`

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var post domain.Post
	var author domain.User
	err := row.Scan(
		&post.ID, &post.AuthorID, &post.Content, &post.MediaType, &post.ImageURL, &post.VideoURL,
		&post.CreatedAt, &post.UpdatedAt,
		&author.ID, &author.UID, &author.Name, &author.Email, &author.Avatar,
		&author.CreatedAt, &author.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	post.Author = &author
	return &post, nil
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO posts (author_id, content, media_type, image_url, video_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id
	`, post.AuthorID, post.Content, post.MediaType, post.ImageURL, post.VideoURL).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`, id)

	post, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

func (r *PostRepo) Update(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE posts
		SET content = $1, media_type = $2, image_url = $3, video_url = $4, updated_at = NOW()
		WHERE id = $5
	`, post.Content, post.MediaType, post.ImageURL, post.VideoURL, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrPostNotFound
	}

	return r.GetByID(ctx, post.ID)
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *PostRepo) ListRecent(ctx context.Context, limit int) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *PostRepo) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

func collectPosts(rows pgx.Rows) ([]domain.Post, error) {
	posts := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read post rows: %w", err)
	}
	return posts, nil
}
