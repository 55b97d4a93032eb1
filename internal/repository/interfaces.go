// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/conecta/internal/model"
)

// UserRepository はユーザーとプロフィールの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByUsername はユーザー名でアカウントを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Account, error)

	// FindByEmail はメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// ExistsByCPF は指定CPFのプロフィールが存在するかを返す。
	ExistsByCPF(ctx context.Context, cpf string) (bool, error)

	// CreateWithProfile はユーザーとプロフィールを同一トランザクションで作成する。
	// 一意制約違反の場合は *UniqueViolationError を返し、行は一切残らない。
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error

	// UpdateUsername はユーザー名を更新する。
	UpdateUsername(ctx context.Context, id, username string) error

	// UpdateCredentials はメールアドレスとパスワードハッシュを更新する。
	UpdateCredentials(ctx context.Context, id, email, passwordHash string) error

	// ReplaceAvatar はアバター参照を置き換え、置き換え前の参照を返す。
	// 読み取りと更新は同一トランザクションで行う。
	ReplaceAvatar(ctx context.Context, id, avatarURL string) (*string, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// profiles、follows、posts、likes、commentsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// FollowRepository はフォロー関係の永続化インターフェース。
type FollowRepository interface {
	// Create はフォロー関係を作成する。既に存在する場合はfalseを返す。
	// 重複判定は (follower_id, followed_id) の一意制約に委ねる。
	Create(ctx context.Context, followerID, followedID string) (bool, error)

	// Delete はフォロー関係を削除する。存在しなかった場合はfalseを返す。
	Delete(ctx context.Context, followerID, followedID string) (bool, error)

	// Stats はフォロワー数、フォロー数、閲覧者のフォロー状態を返す。
	// viewerIDが空の場合IsFollowingは常にfalse。
	Stats(ctx context.Context, userID, viewerID string) (model.GraphStats, error)

	// ListFollowingUsernames はユーザーがフォローしているユーザー名一覧を返す。
	ListFollowingUsernames(ctx context.Context, userID string) ([]string, error)

	// ListFollowerUsernames はユーザーをフォローしているユーザー名一覧を返す。
	ListFollowerUsernames(ctx context.Context, userID string) ([]string, error)
}

// PostRepository は投稿の永続化インターフェース。
// 一覧系メソッドのviewerIDはis_likedの算出に使い、空文字列なら未認証として扱う。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// FindViewByID は指定IDの投稿ビューを取得する。見つからない場合はnilを返す。
	FindViewByID(ctx context.Context, id, viewerID string) (*model.PostView, error)

	// List は全投稿をpublished_at降順で返す。
	List(ctx context.Context, viewerID string) ([]model.PostView, error)

	// ListByAuthor は著者の投稿をpublished_at降順で返す。
	ListByAuthor(ctx context.Context, authorID, viewerID string) ([]model.PostView, error)

	// ListByIDs は指定IDの投稿を返す。返却順は保証しない。
	ListByIDs(ctx context.Context, ids []string, viewerID string) ([]model.PostView, error)

	// Update はタイトルと本文を更新する。著者と日時は変更しない。
	Update(ctx context.Context, id, title, content string) error

	// Delete は投稿を削除する。likes、commentsはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// LikeRepository はいいねの永続化インターフェース。
type LikeRepository interface {
	// Create はいいねを作成する。既に存在する場合はfalseを返す。
	// 投稿が存在しない場合は ErrReferenceMissing を返す。
	Create(ctx context.Context, userID, postID string) (bool, error)

	// Delete はいいねを削除する。存在しなかった場合はfalseを返す。
	Delete(ctx context.Context, userID, postID string) (bool, error)

	// ListPostIDsByUser はユーザーがいいねした投稿IDを、いいねの新しい順で返す。
	ListPostIDsByUser(ctx context.Context, userID string) ([]string, error)
}

// CommentRepository はコメントの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。投稿が存在しない場合は ErrReferenceMissing を返す。
	Create(ctx context.Context, comment *model.Comment) error

	// ListByPost は投稿のコメントをcreated_at昇順で返す。
	ListByPost(ctx context.Context, postID string) ([]model.CommentView, error)
}
