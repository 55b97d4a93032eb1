// Package post は投稿、いいね、コメントのドメインロジックを提供する。
package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/conecta/internal/model"
	"github.com/hitoshi/conecta/internal/repository"
	"github.com/hitoshi/conecta/internal/security"
)

// UserFinder はユーザー検索インターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
}

// Service は投稿のサービス層。
type Service struct {
	posts     repository.PostRepository
	likes     repository.LikeRepository
	comments  repository.CommentRepository
	users     UserFinder
	sanitizer security.ContentSanitizerService
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	posts repository.PostRepository,
	likes repository.LikeRepository,
	comments repository.CommentRepository,
	users UserFinder,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		posts:     posts,
		likes:     likes,
		comments:  comments,
		users:     users,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Create は actorID を著者として投稿を作成する。
// created_at と published_at はサーバー側で同じ時刻を設定する。
func (s *Service) Create(ctx context.Context, actorID, title, content string) (*model.PostView, error) {
	title, content, err := s.cleanPost(title, content)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &model.Post{
		ID:          uuid.New().String(),
		AuthorID:    actorID,
		Title:       title,
		Content:     content,
		PublishedAt: now,
		CreatedAt:   now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", actorID),
	)
	return s.view(ctx, post.ID, actorID)
}

// List は全投稿を公開日時の新しい順で返す。
func (s *Service) List(ctx context.Context, viewerID string) ([]model.PostView, error) {
	views, err := s.posts.List(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return views, nil
}

// ListByAuthor は指定ユーザーの投稿を公開日時の新しい順で返す。
func (s *Service) ListByAuthor(ctx context.Context, username, viewerID string) ([]model.PostView, error) {
	author, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	views, err := s.posts.ListByAuthor(ctx, author.ID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return views, nil
}

// Get は投稿を1件返す。
func (s *Service) Get(ctx context.Context, postID, viewerID string) (*model.PostView, error) {
	return s.view(ctx, postID, viewerID)
}

// Update は投稿のタイトルと本文を更新する。著者以外は更新できない。
// 著者と日時は変更しない。
func (s *Service) Update(ctx context.Context, actorID, postID, title, content string) (*model.PostView, error) {
	if _, err := s.ownPost(ctx, actorID, postID); err != nil {
		return nil, err
	}
	title, content, err := s.cleanPost(title, content)
	if err != nil {
		return nil, err
	}

	if err := s.posts.Update(ctx, postID, title, content); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewPostNotFoundError(postID)
		}
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	return s.view(ctx, postID, actorID)
}

// Delete は投稿を削除する。著者以外は削除できない。
// いいねとコメントはスキーマのCASCADEで削除される。
func (s *Service) Delete(ctx context.Context, actorID, postID string) error {
	if _, err := s.ownPost(ctx, actorID, postID); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewPostNotFoundError(postID)
		}
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}

	slog.Info("post deleted",
		slog.String("post_id", postID),
		slog.String("author_id", actorID),
	)
	return nil
}

// Like は投稿にいいねする。新規作成した場合はtrueを返す。
func (s *Service) Like(ctx context.Context, actorID, postID string) (bool, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return false, err
	}
	created, err := s.likes.Create(ctx, actorID, postID)
	if errors.Is(err, repository.ErrReferenceMissing) {
		return false, model.NewPostNotFoundError(postID)
	}
	if err != nil {
		return false, fmt.Errorf("いいねの作成に失敗しました: %w", err)
	}
	return created, nil
}

// Unlike はいいねを取り消す。削除した場合はtrueを返す。
func (s *Service) Unlike(ctx context.Context, actorID, postID string) (bool, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return false, err
	}
	deleted, err := s.likes.Delete(ctx, actorID, postID)
	if err != nil {
		return false, fmt.Errorf("いいねの削除に失敗しました: %w", err)
	}
	return deleted, nil
}

// Liked は actorID がいいねした投稿を、いいねした時刻の新しい順で返す。
func (s *Service) Liked(ctx context.Context, actorID string) ([]model.PostView, error) {
	ids, err := s.likes.ListPostIDsByUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("いいね一覧の取得に失敗しました: %w", err)
	}
	views, err := s.posts.ListByIDs(ctx, ids, actorID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return orderByIDs(views, ids), nil
}

// orderByIDs はviewsをidsの順に並べ替える。idsにない投稿は含めない。
func orderByIDs(views []model.PostView, ids []string) []model.PostView {
	byID := make(map[string]model.PostView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	ordered := make([]model.PostView, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}
	return ordered
}

// ListComments は投稿のコメントを作成日時の古い順で返す。
func (s *Service) ListComments(ctx context.Context, postID string) ([]model.CommentView, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}

// CreateComment は actorID を著者としてコメントを作成する。
// 著者と投稿はリクエストボディではなく認証情報とパスから決まる。
func (s *Service) CreateComment(ctx context.Context, actorID, postID, content string) (*model.CommentView, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return nil, err
	}
	content = s.sanitizer.SanitizeText(content)
	if content == "" {
		return nil, model.NewFieldError("content", model.MsgContentRequired)
	}

	comment := &model.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		AuthorID:  actorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, model.NewPostNotFoundError(postID)
		}
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	view := &model.CommentView{Comment: *comment}
	author, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("著者の取得に失敗しました: %w", err)
	}
	if author != nil {
		view.AuthorUsername = author.Username
	}
	return view, nil
}

// cleanPost はタイトルと本文をサニタイズして検証する。
func (s *Service) cleanPost(title, content string) (string, string, error) {
	title = s.sanitizer.SanitizeText(title)
	content = s.sanitizer.Sanitize(content)

	fe := model.FieldErrors{}
	if utf8.RuneCountInString(title) > model.PostTitleMaxLength {
		fe.Add("title", model.MsgTitleTooLong)
	}
	if content == "" {
		fe.Add("content", model.MsgContentRequired)
	}
	if !fe.Empty() {
		return "", "", model.NewValidationError(fe)
	}
	return title, content, nil
}

func (s *Service) findPost(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	return post, nil
}

// ownPost は投稿を取得し、actorIDが著者であることを確認する。
func (s *Service) ownPost(ctx context.Context, actorID, postID string) (*model.Post, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, model.NewForbiddenError()
	}
	return post, nil
}

func (s *Service) view(ctx context.Context, postID, viewerID string) (*model.PostView, error) {
	view, err := s.posts.FindViewByID(ctx, postID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if view == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	return view, nil
}

func (s *Service) resolveUser(ctx context.Context, username string) (*model.Account, error) {
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
