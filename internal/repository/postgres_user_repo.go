package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/conecta/internal/model"
)

// accountColumns はusersとprofilesを結合して取得する列。
const accountColumns = `u.id, u.username, u.email, u.password_hash, u.created_at, u.updated_at,
	p.cpf, p.avatar_url, p.created_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return r.findOne(ctx, "u.id = $1", id)
}

// FindByUsername はユーザー名でアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.findOne(ctx, "u.username = $1", username)
}

// FindByEmail はメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, "u.email = $1", email)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, where string, arg string) (*model.Account, error) {
	acc := &model.Account{}
	var avatar sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+`
		 FROM users u
		 JOIN profiles p ON p.user_id = u.id
		 WHERE `+where,
		arg,
	).Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.PasswordHash, &acc.CreatedAt, &acc.UpdatedAt,
		&acc.Profile.CPF, &avatar, &acc.Profile.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	acc.Profile.UserID = acc.ID
	if avatar.Valid {
		acc.Profile.AvatarURL = &avatar.String
	}
	return acc, nil
}

// ExistsByCPF は指定CPFのプロフィールが存在するかを返す。
func (r *PostgresUserRepo) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE cpf = $1)`,
		cpf,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cpf: %w", err)
	}
	return exists, nil
}

// CreateWithProfile はユーザーとプロフィールを同一トランザクションで作成する。
func (r *PostgresUserRepo) CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if uv := asUniqueViolation(err); uv != nil {
			return uv
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, cpf, avatar_url, created_at)
		 VALUES ($1, $2, $3, $4)`,
		profile.UserID, profile.CPF, profile.AvatarURL, profile.CreatedAt,
	)
	if err != nil {
		if uv := asUniqueViolation(err); uv != nil {
			return uv
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateUsername はユーザー名を更新する。
func (r *PostgresUserRepo) UpdateUsername(ctx context.Context, id, username string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = $2, updated_at = $3 WHERE id = $1`,
		id, username, time.Now(),
	)
	if err != nil {
		if uv := asUniqueViolation(err); uv != nil {
			return uv
		}
		return fmt.Errorf("failed to update username: %w", err)
	}
	return expectOneRow(result)
}

// UpdateCredentials はメールアドレスとパスワードハッシュを更新する。
func (r *PostgresUserRepo) UpdateCredentials(ctx context.Context, id, email, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $2, password_hash = $3, updated_at = $4 WHERE id = $1`,
		id, email, passwordHash, time.Now(),
	)
	if err != nil {
		if uv := asUniqueViolation(err); uv != nil {
			return uv
		}
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	return expectOneRow(result)
}

// ReplaceAvatar はアバター参照を置き換え、置き換え前の参照を返す。
// 旧ファイルの削除は呼び出し側がコミット後に行う。
func (r *PostgresUserRepo) ReplaceAvatar(ctx context.Context, id, avatarURL string) (*string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var previous sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT avatar_url FROM profiles WHERE user_id = $1 FOR UPDATE`,
		id,
	).Scan(&previous)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE profiles SET avatar_url = $2 WHERE user_id = $1`,
		id, avatarURL,
	); err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if !previous.Valid {
		return nil, nil
	}
	return &previous.String, nil
}

// DeleteByID は指定IDのユーザーを削除する。
// profiles、follows、posts、likes、commentsはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOneRow(result)
}

// expectOneRow は更新・削除が1行以上に作用したことを確認する。
func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
