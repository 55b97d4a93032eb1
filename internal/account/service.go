// Package account はログイン済みユーザーのアカウント管理を提供する。
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/conecta/internal/auth"
	"github.com/hitoshi/conecta/internal/media"
	"github.com/hitoshi/conecta/internal/model"
	"github.com/hitoshi/conecta/internal/repository"
)

// StatsReader はフォロー集計の取得インターフェース。
type StatsReader interface {
	Stats(ctx context.Context, userID, viewerID string) (model.GraphStats, error)
}

// AvatarUploader はプロフィール画像の検証、保存、削除のインターフェース。
type AvatarUploader interface {
	Check(f *media.File) (string, error)
	Save(ctx context.Context, f *media.File) (string, error)
	Discard(ctx context.Context, url string)
}

// CredentialsInput はメールアドレス・パスワード変更の入力。
// Email と NewPassword は空なら変更しない。
type CredentialsInput struct {
	CurrentPassword string
	Email           string
	NewPassword     string
}

// Service はアカウント管理のサービス層。
type Service struct {
	userRepo   repository.UserRepository
	stats      StatsReader
	uploader   AvatarUploader
	bcryptCost int
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	stats StatsReader,
	uploader AvatarUploader,
	bcryptCost int,
) *Service {
	return &Service{
		userRepo:   userRepo,
		stats:      stats,
		uploader:   uploader,
		bcryptCost: bcryptCost,
	}
}

// Me は認証済みユーザー自身のアカウント情報をフォロー集計付きで返す。
func (s *Service) Me(ctx context.Context, userID string) (*model.AccountDetail, error) {
	account, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewUserNotFoundError()
	}
	return s.withStats(ctx, account, "")
}

// Profile はユーザー名で指定したアカウントを返す。
// viewerIDが空の場合は未認証として扱い、is_followingは常にfalseになる。
func (s *Service) Profile(ctx context.Context, username, viewerID string) (*model.AccountDetail, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.NewInvalidRequestError(model.MsgUsernameRequired)
	}

	account, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewUserNotFoundError()
	}
	return s.withStats(ctx, account, viewerID)
}

func (s *Service) withStats(ctx context.Context, account *model.Account, viewerID string) (*model.AccountDetail, error) {
	stats, err := s.stats.Stats(ctx, account.ID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("フォロー集計の取得に失敗しました: %w", err)
	}
	return &model.AccountDetail{Account: *account, Stats: stats}, nil
}

// UpdateUsername はユーザー名を変更し、変更後のユーザー名を返す。
// 自分自身が現在使っているユーザー名は重複とみなさない。
func (s *Service) UpdateUsername(ctx context.Context, userID, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", model.NewFieldError("username", model.MsgUsernameRequired)
	}
	if !auth.ValidUsername(username) {
		return "", model.NewFieldError("username", model.MsgUsernameInvalid)
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("ユーザー名の確認に失敗しました: %w", err)
	}
	if existing != nil && existing.ID != userID {
		return "", model.NewFieldError("username", model.MsgUsernameExists)
	}

	if err := s.userRepo.UpdateUsername(ctx, userID, username); err != nil {
		var uv *repository.UniqueViolationError
		if errors.As(err, &uv) {
			return "", model.NewFieldError("username", model.MsgUsernameExists)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return "", model.NewUserNotFoundError()
		}
		return "", fmt.Errorf("ユーザー名の更新に失敗しました: %w", err)
	}

	slog.Info("ユーザー名を変更しました", slog.String("user_id", userID))
	return username, nil
}

// UpdateEmailPassword は現在のパスワードを確認したうえでメールアドレスとパスワードを変更する。
func (s *Service) UpdateEmailPassword(ctx context.Context, userID string, in CredentialsInput) error {
	if in.CurrentPassword == "" {
		return model.NewFieldError("current_password", model.MsgCurrentPasswordReq)
	}

	account, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if account == nil {
		return model.NewUserNotFoundError()
	}
	if !auth.CheckPassword(account.PasswordHash, in.CurrentPassword) {
		return model.NewIncorrectPasswordError()
	}

	email := strings.TrimSpace(in.Email)
	fe := model.FieldErrors{}
	if email != "" && email != account.Email {
		if !auth.ValidEmail(email) {
			fe.Add("email", model.MsgEmailInvalid)
		} else {
			existing, err := s.userRepo.FindByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("メールアドレスの確認に失敗しました: %w", err)
			}
			if existing != nil && existing.ID != userID {
				fe.Add("email", model.MsgEmailExists)
			}
		}
	}
	if in.NewPassword != "" {
		if msg := auth.PasswordProblem(in.NewPassword); msg != "" {
			fe.Add("new_password", msg)
		}
	}
	if !fe.Empty() {
		return model.NewValidationError(fe)
	}

	if email == "" {
		email = account.Email
	}
	hash := account.PasswordHash
	if in.NewPassword != "" {
		hash, err = auth.HashPassword(in.NewPassword, s.bcryptCost)
		if err != nil {
			return err
		}
	}

	if err := s.userRepo.UpdateCredentials(ctx, userID, email, hash); err != nil {
		var uv *repository.UniqueViolationError
		if errors.As(err, &uv) {
			return model.NewFieldError("email", model.MsgEmailExists)
		}
		return fmt.Errorf("認証情報の更新に失敗しました: %w", err)
	}

	slog.Info("認証情報を変更しました",
		slog.String("user_id", userID),
		slog.Bool("email_changed", email != account.Email),
		slog.Bool("password_changed", in.NewPassword != ""),
	)
	return nil
}

// UpdateAvatar はプロフィール画像を差し替え、新しい画像のURLを返す。
// 旧画像の削除は参照の置き換えがコミットされた後に行い、失敗してもエラーにしない。
func (s *Service) UpdateAvatar(ctx context.Context, userID string, f *media.File) (string, error) {
	msg, err := s.uploader.Check(f)
	if err != nil {
		return "", fmt.Errorf("画像の検査に失敗しました: %w", err)
	}
	if msg != "" {
		return "", model.NewInvalidUploadError(msg)
	}

	url, err := s.uploader.Save(ctx, f)
	if err != nil {
		return "", model.NewUpstreamUnavailableError("media")
	}

	previous, err := s.userRepo.ReplaceAvatar(ctx, userID, url)
	if err != nil {
		s.uploader.Discard(ctx, url)
		if errors.Is(err, repository.ErrNotFound) {
			return "", model.NewUserNotFoundError()
		}
		return "", fmt.Errorf("プロフィール画像の更新に失敗しました: %w", err)
	}
	if previous != nil && *previous != "" {
		s.uploader.Discard(ctx, *previous)
	}

	slog.Info("プロフィール画像を変更しました", slog.String("user_id", userID))
	return url, nil
}

// Withdraw はユーザーの退会処理を実行する。
// プロフィール、フォロー関係、投稿、いいね、コメントはスキーマのCASCADEで削除される。
// 行の削除後にプロフィール画像を削除する。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	account, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if account == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します", slog.String("user_id", userID))

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	if avatar := account.Profile.AvatarURL; avatar != nil && *avatar != "" {
		s.uploader.Discard(ctx, *avatar)
	}

	slog.Info("退会処理が完了しました", slog.String("user_id", userID))
	return nil
}
