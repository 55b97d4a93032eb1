// Package graph はユーザー間のフォロー関係を扱う。
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/conecta/internal/model"
	"github.com/hitoshi/conecta/internal/repository"
)

// UserFinder はユーザー名によるユーザー検索インターフェース。
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
}

// Service はフォロー関係のサービス層。
type Service struct {
	users   UserFinder
	follows repository.FollowRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users UserFinder, follows repository.FollowRepository) *Service {
	return &Service{users: users, follows: follows}
}

// Follow は actorID のユーザーが targetUsername をフォローする。
// 新規作成した場合はtrue、既にフォロー済みの場合はfalseを返す。
func (s *Service) Follow(ctx context.Context, actorID, targetUsername string) (bool, error) {
	target, err := s.resolve(ctx, targetUsername)
	if err != nil {
		return false, err
	}
	if target.ID == actorID {
		return false, model.NewSelfFollowError()
	}

	created, err := s.follows.Create(ctx, actorID, target.ID)
	if err != nil {
		return false, fmt.Errorf("フォローの作成に失敗しました: %w", err)
	}
	if created {
		slog.Info("follow created",
			slog.String("follower_id", actorID),
			slog.String("followed_id", target.ID),
		)
	}
	return created, nil
}

// Unfollow はフォローを解除する。
// 削除した場合はtrue、元々フォローしていなかった場合はfalseを返す。
func (s *Service) Unfollow(ctx context.Context, actorID, targetUsername string) (bool, error) {
	target, err := s.resolve(ctx, targetUsername)
	if err != nil {
		return false, err
	}

	deleted, err := s.follows.Delete(ctx, actorID, target.ID)
	if err != nil {
		return false, fmt.Errorf("フォローの解除に失敗しました: %w", err)
	}
	return deleted, nil
}

// Following は actorID のユーザーがフォローしているユーザー名一覧を返す。
func (s *Service) Following(ctx context.Context, actorID string) ([]string, error) {
	usernames, err := s.follows.ListFollowingUsernames(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("フォロー一覧の取得に失敗しました: %w", err)
	}
	return usernames, nil
}

// FollowersOf は指定ユーザーのフォロワーのユーザー名一覧を返す。
func (s *Service) FollowersOf(ctx context.Context, username string) ([]string, error) {
	target, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	usernames, err := s.follows.ListFollowerUsernames(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("フォロワー一覧の取得に失敗しました: %w", err)
	}
	return usernames, nil
}

// FollowingOf は指定ユーザーがフォローしているユーザー名一覧を返す。
func (s *Service) FollowingOf(ctx context.Context, username string) ([]string, error) {
	target, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.Following(ctx, target.ID)
}

// resolve はユーザー名をアカウントに解決する。空なら400、存在しなければ404。
func (s *Service) resolve(ctx context.Context, username string) (*model.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.NewInvalidRequestError(model.MsgUsernameRequired)
	}
	account, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewUserNotFoundError()
	}
	return account, nil
}
