// Package auth はユーザー登録、ログイン、トークン発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/conecta/internal/cpf"
	"github.com/hitoshi/conecta/internal/media"
	"github.com/hitoshi/conecta/internal/model"
	"github.com/hitoshi/conecta/internal/repository"
)

// 登録結果の種別。
const (
	RegistrationCreated  = "created"
	RegistrationRejected = "rejected"
)

// AvatarUploader はプロフィール画像の検証と保存のインターフェース。
type AvatarUploader interface {
	Check(f *media.File) (string, error)
	Save(ctx context.Context, f *media.File) (string, error)
	Discard(ctx context.Context, url string)
}

// Recorder は認証関連のメトリクス記録先。
type Recorder interface {
	RecordRegistration(outcome string)
	RecordLogin(success bool)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	CPF             string
	Avatar          *media.File // 任意
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenIssuer
	verifier cpf.Verifier
	uploader AvatarUploader
	recorder Recorder
	config   ServiceConfig
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	tokens *TokenIssuer,
	verifier cpf.Verifier,
	uploader AvatarUploader,
	recorder Recorder,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		verifier: verifier,
		uploader: uploader,
		recorder: recorder,
		config:   config,
	}
}

// Register はユーザーとプロフィールを作成し、トークンペアを発行する。
// 全フィールドの検証結果をまとめて返し、失敗時は行を一切作成しない。
// 外部CPF照会は他の検証が全て通った場合のみ行う。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.Account, model.TokenPair, error) {
	fe, err := s.validateRegistration(ctx, in)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	if fe.Empty() && !s.verifier.Verify(ctx, in.CPF) {
		fe.Add("cpf", model.MsgCPFInvalidExternal)
	}
	if !fe.Empty() {
		s.recordRegistration(RegistrationRejected)
		return nil, model.TokenPair{}, model.NewValidationError(fe)
	}

	hash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, model.TokenPair{}, err
	}

	var avatarURL *string
	if in.Avatar != nil {
		url, err := s.uploader.Save(ctx, in.Avatar)
		if err != nil {
			return nil, model.TokenPair{}, model.NewUpstreamUnavailableError("media")
		}
		avatarURL = &url
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &model.Profile{
		UserID:    user.ID,
		CPF:       in.CPF,
		AvatarURL: avatarURL,
		CreatedAt: now,
	}

	if err := s.userRepo.CreateWithProfile(ctx, user, profile); err != nil {
		if avatarURL != nil {
			s.uploader.Discard(ctx, *avatarURL)
		}
		var uv *repository.UniqueViolationError
		if errors.As(err, &uv) {
			s.recordRegistration(RegistrationRejected)
			return nil, model.TokenPair{}, uniqueViolationToFieldError(uv)
		}
		return nil, model.TokenPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, model.TokenPair{}, err
	}

	s.recordRegistration(RegistrationCreated)
	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.Bool("has_avatar", avatarURL != nil),
	)
	return &model.Account{User: *user, Profile: *profile}, pair, nil
}

// validateRegistration はフィールド単位の検証を全て実行する。
// 途中で打ち切らず、全フィールドのエラーを集める。
func (s *Service) validateRegistration(ctx context.Context, in RegisterInput) (model.FieldErrors, error) {
	fe := model.FieldErrors{}

	switch {
	case in.Username == "":
		fe.Add("username", model.MsgFieldRequired)
	case !ValidUsername(in.Username):
		fe.Add("username", model.MsgUsernameInvalid)
	default:
		existing, err := s.userRepo.FindByUsername(ctx, in.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if existing != nil {
			fe.Add("username", model.MsgUsernameExists)
		}
	}

	switch {
	case in.Email == "":
		fe.Add("email", model.MsgFieldRequired)
	case !ValidEmail(in.Email):
		fe.Add("email", model.MsgEmailInvalid)
	default:
		existing, err := s.userRepo.FindByEmail(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil {
			fe.Add("email", model.MsgEmailExists)
		}
	}

	if in.Password == "" {
		fe.Add("password", model.MsgFieldRequired)
	} else if msg := PasswordProblem(in.Password); msg != "" {
		fe.Add("password", msg)
	}
	if in.PasswordConfirm == "" {
		fe.Add("password_confirm", model.MsgFieldRequired)
	} else if in.Password != in.PasswordConfirm {
		fe.Add("password_confirm", model.MsgPasswordMismatch)
	}

	switch {
	case in.CPF == "":
		fe.Add("cpf", model.MsgFieldRequired)
	case !cpf.FormatValid(in.CPF):
		fe.Add("cpf", model.MsgCPFInvalid)
	default:
		exists, err := s.userRepo.ExistsByCPF(ctx, in.CPF)
		if err != nil {
			return nil, fmt.Errorf("failed to check cpf: %w", err)
		}
		if exists {
			fe.Add("cpf", model.MsgCPFExists)
		}
	}

	if in.Avatar != nil {
		msg, err := s.uploader.Check(in.Avatar)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect avatar: %w", err)
		}
		if msg != "" {
			fe.Add("profile_picture", msg)
		}
	}

	return fe, nil
}

// uniqueViolationToFieldError は事前チェックをすり抜けた一意制約違反をフィールドエラーに変換する。
func uniqueViolationToFieldError(uv *repository.UniqueViolationError) *model.APIError {
	switch uv.Constraint {
	case repository.ConstraintUsername:
		return model.NewFieldError("username", model.MsgUsernameExists)
	case repository.ConstraintEmail:
		return model.NewFieldError("email", model.MsgEmailExists)
	case repository.ConstraintCPF:
		return model.NewFieldError("cpf", model.MsgCPFExists)
	default:
		return model.NewFieldError("non_field_errors", model.MsgRegisterGeneric)
	}
}

// Login はユーザー名またはメールアドレスとパスワードで認証し、トークンペアを発行する。
// ユーザー名として検索し、見つからなければメールアドレスとして検索する。
// 失敗理由はユーザー名とパスワードのどちらが誤っていても区別しない。
func (s *Service) Login(ctx context.Context, identifier, password string) (*model.Account, model.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, model.TokenPair{}, model.NewInvalidRequestError(model.MsgLoginRequired)
	}

	account, err := s.userRepo.FindByUsername(ctx, identifier)
	if err != nil {
		return nil, model.TokenPair{}, fmt.Errorf("failed to find user by username: %w", err)
	}
	if account == nil {
		account, err = s.userRepo.FindByEmail(ctx, identifier)
		if err != nil {
			return nil, model.TokenPair{}, fmt.Errorf("failed to find user by email: %w", err)
		}
	}

	if account == nil {
		equalizeTiming(password)
		s.recordLogin(false)
		return nil, model.TokenPair{}, model.NewInvalidCredentialsError()
	}
	if !CheckPassword(account.PasswordHash, password) {
		s.recordLogin(false)
		slog.Info("login failed", slog.String("user_id", account.ID))
		return nil, model.TokenPair{}, model.NewInvalidCredentialsError()
	}

	pair, err := s.tokens.Issue(&account.User)
	if err != nil {
		return nil, model.TokenPair{}, err
	}
	s.recordLogin(true)
	slog.Info("user logged in", slog.String("user_id", account.ID))
	return account, pair, nil
}

// Refresh はリフレッシュトークンを検証し、新しいトークンペアを発行する。
// 削除済みユーザーのトークンは無効として扱う。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if refreshToken == "" {
		return model.TokenPair{}, model.NewFieldError("refresh", model.MsgFieldRequired)
	}

	claims, err := s.tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return model.TokenPair{}, model.NewTokenInvalidError()
	}

	account, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to find user: %w", err)
	}
	if account == nil {
		return model.TokenPair{}, model.NewTokenInvalidError()
	}

	return s.tokens.Issue(&account.User)
}

// Authenticate はアクセストークンを検証し、ユーザーIDを返す。
// トークンが有効でもユーザーが削除済みの場合は拒否する。
func (s *Service) Authenticate(ctx context.Context, accessToken string) (string, error) {
	claims, err := s.tokens.Verify(accessToken, TokenTypeAccess)
	if err != nil {
		return "", model.NewTokenInvalidError()
	}

	account, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if account == nil {
		return "", model.NewTokenInvalidError()
	}
	return account.ID, nil
}

func (s *Service) recordRegistration(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordRegistration(outcome)
	}
}

func (s *Service) recordLogin(success bool) {
	if s.recorder != nil {
		s.recorder.RecordLogin(success)
	}
}
