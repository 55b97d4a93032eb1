package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/conecta/internal/model"
)

// PostgresFollowRepo はPostgreSQLを使用したフォロー関係リポジトリ。
type PostgresFollowRepo struct {
	db *sql.DB
}

// NewPostgresFollowRepo はPostgresFollowRepoを生成する。
func NewPostgresFollowRepo(db *sql.DB) *PostgresFollowRepo {
	return &PostgresFollowRepo{db: db}
}

// Create はフォロー関係を作成する。既に存在する場合はfalseを返す。
// 同時リクエストでも (follower_id, followed_id) の一意制約により1行だけが残る。
func (r *PostgresFollowRepo) Create(ctx context.Context, followerID, followedID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO follows (id, follower_id, followed_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT ON CONSTRAINT `+ConstraintFollow+` DO NOTHING`,
		uuid.New().String(), followerID, followedID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert follow: %w", err)
	}
	return rowsAffected(result)
}

// Delete はフォロー関係を削除する。存在しなかった場合はfalseを返す。
func (r *PostgresFollowRepo) Delete(ctx context.Context, followerID, followedID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete follow: %w", err)
	}
	return rowsAffected(result)
}

// Stats はフォロワー数、フォロー数、閲覧者のフォロー状態を1クエリで返す。
func (r *PostgresFollowRepo) Stats(ctx context.Context, userID, viewerID string) (model.GraphStats, error) {
	var stats model.GraphStats
	err := r.db.QueryRowContext(ctx,
		`SELECT
			(SELECT count(*) FROM follows WHERE followed_id = $1),
			(SELECT count(*) FROM follows WHERE follower_id = $1),
			EXISTS (SELECT 1 FROM follows WHERE followed_id = $1 AND follower_id = NULLIF($2, '')::uuid)`,
		userID, viewerID,
	).Scan(&stats.FollowersCount, &stats.FollowingCount, &stats.IsFollowing)
	if err != nil {
		return model.GraphStats{}, fmt.Errorf("failed to load follow stats: %w", err)
	}
	return stats, nil
}

// ListFollowingUsernames はユーザーがフォローしているユーザー名一覧を返す。
func (r *PostgresFollowRepo) ListFollowingUsernames(ctx context.Context, userID string) ([]string, error) {
	return r.listUsernames(ctx,
		`SELECT u.username FROM follows f
		 JOIN users u ON u.id = f.followed_id
		 WHERE f.follower_id = $1
		 ORDER BY f.created_at DESC`,
		userID,
	)
}

// ListFollowerUsernames はユーザーをフォローしているユーザー名一覧を返す。
func (r *PostgresFollowRepo) ListFollowerUsernames(ctx context.Context, userID string) ([]string, error) {
	return r.listUsernames(ctx,
		`SELECT u.username FROM follows f
		 JOIN users u ON u.id = f.follower_id
		 WHERE f.followed_id = $1
		 ORDER BY f.created_at DESC`,
		userID,
	)
}

func (r *PostgresFollowRepo) listUsernames(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list usernames: %w", err)
	}
	defer rows.Close()

	usernames := []string{}
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		usernames = append(usernames, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usernames: %w", err)
	}
	return usernames, nil
}

// rowsAffected はINSERT ... ON CONFLICT DO NOTHING / DELETEが行に作用したかを返す。
func rowsAffected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ FollowRepository = (*PostgresFollowRepo)(nil)
