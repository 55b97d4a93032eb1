package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/conecta/internal/model"
	"github.com/lib/pq"
)

// postViewSelect は投稿ビューの取得クエリの共通部分。
// $1 は閲覧者ID（空文字列なら未認証）。
const postViewSelect = `SELECT p.id, p.author_id, p.title, p.content, p.published_at, p.created_at,
	u.username, pr.avatar_url,
	(SELECT count(*) FROM likes l WHERE l.post_id = p.id),
	EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = NULLIF($1, '')::uuid)
	FROM posts p
	JOIN users u ON u.id = p.author_id
	JOIN profiles pr ON pr.user_id = p.author_id`

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, title, content, published_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.AuthorID, post.Title, post.Content, post.PublishedAt, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, author_id, title, content, published_at, created_at FROM posts WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.PublishedAt, &post.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return post, nil
}

// FindViewByID は指定IDの投稿ビューを取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindViewByID(ctx context.Context, id, viewerID string) (*model.PostView, error) {
	views, err := r.queryViews(ctx, postViewSelect+` WHERE p.id = $2`, viewerID, id)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

// List は全投稿をpublished_at降順で返す。
func (r *PostgresPostRepo) List(ctx context.Context, viewerID string) ([]model.PostView, error) {
	return r.queryViews(ctx, postViewSelect+` ORDER BY p.published_at DESC, p.id`, viewerID)
}

// ListByAuthor は著者の投稿をpublished_at降順で返す。
func (r *PostgresPostRepo) ListByAuthor(ctx context.Context, authorID, viewerID string) ([]model.PostView, error) {
	return r.queryViews(ctx,
		postViewSelect+` WHERE p.author_id = $2 ORDER BY p.published_at DESC, p.id`,
		viewerID, authorID,
	)
}

// ListByIDs は指定IDの投稿を返す。返却順は保証しない。
func (r *PostgresPostRepo) ListByIDs(ctx context.Context, ids []string, viewerID string) ([]model.PostView, error) {
	if len(ids) == 0 {
		return []model.PostView{}, nil
	}
	return r.queryViews(ctx,
		postViewSelect+` WHERE p.id = ANY($2::uuid[])`,
		viewerID, pq.Array(ids),
	)
}

// Update はタイトルと本文を更新する。著者と日時は変更しない。
func (r *PostgresPostRepo) Update(ctx context.Context, id, title, content string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = $2, content = $3 WHERE id = $1`,
		id, title, content,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return expectOneRow(result)
}

// Delete は投稿を削除する。likes、commentsはCASCADE削除される。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return expectOneRow(result)
}

func (r *PostgresPostRepo) queryViews(ctx context.Context, query string, args ...any) ([]model.PostView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	views := []model.PostView{}
	for rows.Next() {
		var v model.PostView
		var avatar sql.NullString
		if err := rows.Scan(
			&v.ID, &v.AuthorID, &v.Title, &v.Content, &v.PublishedAt, &v.CreatedAt,
			&v.AuthorUsername, &avatar, &v.LikeCount, &v.IsLiked,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		if avatar.Valid {
			v.AuthorAvatarURL = &avatar.String
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return views, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
