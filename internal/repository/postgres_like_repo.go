package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresLikeRepo はPostgreSQLを使用したいいねリポジトリ。
type PostgresLikeRepo struct {
	db *sql.DB
}

// NewPostgresLikeRepo はPostgresLikeRepoを生成する。
func NewPostgresLikeRepo(db *sql.DB) *PostgresLikeRepo {
	return &PostgresLikeRepo{db: db}
}

// Create はいいねを作成する。既に存在する場合はfalseを返す。
// 投稿が削除済みの場合は ErrReferenceMissing を返す。
func (r *PostgresLikeRepo) Create(ctx context.Context, userID, postID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (id, user_id, post_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT ON CONSTRAINT `+ConstraintLike+` DO NOTHING`,
		uuid.New().String(), userID, postID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, fmt.Errorf("failed to insert like: %w", ErrReferenceMissing)
		}
		return false, fmt.Errorf("failed to insert like: %w", err)
	}
	return rowsAffected(result)
}

// Delete はいいねを削除する。存在しなかった場合はfalseを返す。
func (r *PostgresLikeRepo) Delete(ctx context.Context, userID, postID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = $1 AND post_id = $2`,
		userID, postID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}
	return rowsAffected(result)
}

// ListPostIDsByUser はユーザーがいいねした投稿IDを、いいねの新しい順で返す。
func (r *PostgresLikeRepo) ListPostIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT post_id FROM likes WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked post ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan liked post id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate liked post ids: %w", err)
	}
	return ids, nil
}

// compile-time interface check
var _ LikeRepository = (*PostgresLikeRepo)(nil)
