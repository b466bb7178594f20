package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-be/internal/entities"
)

// PostRepository defines the interface for post persistence.
// Update and Delete only touch rows created by the given creator.
type PostRepository interface {
	Create(ctx context.Context, post *entities.Post) (*entities.Post, error)
	FindByID(ctx context.Context, id string) (*entities.Post, error)
	List(ctx context.Context, offset, limit int) ([]*entities.Post, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, post *entities.Post) (*entities.Post, error)
	Delete(ctx context.Context, id, creatorID string) error
}

type postRepository struct {
	db *sql.DB
}

// NewPostRepository creates a PostgreSQL-backed post repository
func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `
	p.id, p.title, p.content, p.image_url, p.creator_id, p.created_at, p.updated_at,
	u.id, u.email, u.name, u.status, u.created_at, u.updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*entities.Post, error) {
	var post entities.Post
	var creator entities.User
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.ImageURL,
		&post.CreatorID,
		&post.CreatedAt,
		&post.UpdatedAt,
		&creator.ID,
		&creator.Email,
		&creator.Name,
		&creator.Status,
		&creator.CreatedAt,
		&creator.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	post.Creator = &creator
	return &post, nil
}

// Create inserts a new post and returns it with its creator
func (r *postRepository) Create(ctx context.Context, post *entities.Post) (*entities.Post, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, content, image_url, creator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, post.Title, post.Content, post.ImageURL, post.CreatorID).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return r.FindByID(ctx, id)
}

// FindByID finds a post by ID (UUID) joined with its creator
func (r *postRepository) FindByID(ctx context.Context, id string) (*entities.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.creator_id
		WHERE p.id = $1
	`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) || pqCode(err) == pqInvalidTextRepr {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return post, nil
}

// List returns one page of posts, newest first
func (r *postRepository) List(ctx context.Context, offset, limit int) ([]*entities.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.creator_id
		ORDER BY p.created_at DESC
		OFFSET $1 LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*entities.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}

// Count returns the total number of posts
func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return total, nil
}

// Update replaces title, content and image of a post owned by post.CreatorID
func (r *postRepository) Update(ctx context.Context, post *entities.Post) (*entities.Post, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE posts
		SET title = $1, content = $2, image_url = $3, updated_at = NOW()
		WHERE id = $4 AND creator_id = $5
	`, post.Title, post.Content, post.ImageURL, post.ID, post.CreatorID)
	if pqCode(err) == pqInvalidTextRepr {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(ctx, post.ID)
}

// Delete removes a post owned by creatorID
func (r *postRepository) Delete(ctx context.Context, id, creatorID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND creator_id = $2`, id, creatorID)
	if pqCode(err) == pqInvalidTextRepr {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
