package media

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// keyPrefix はプロフィール画像の保存先プレフィックス。
const keyPrefix = "profile_pictures/"

// アップロード結果の種別。
const (
	OutcomeStored   = "stored"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// UploadRecorder はアップロード結果の記録先。
type UploadRecorder interface {
	RecordUpload(outcome string)
}

// Uploader はポリシー検証とStoreへの保存をまとめる。
type Uploader struct {
	store    Store
	policy   UploadPolicy
	logger   *slog.Logger
	recorder UploadRecorder
}

// NewUploader はUploaderを生成する。recorderはnilでもよい。
func NewUploader(store Store, policy UploadPolicy, logger *slog.Logger, recorder UploadRecorder) *Uploader {
	return &Uploader{
		store:    store,
		policy:   policy,
		logger:   logger,
		recorder: recorder,
	}
}

// Policy はアップロードポリシーを返す。
func (u *Uploader) Policy() UploadPolicy {
	return u.policy
}

// Check はファイルを検証し、違反時はユーザー向けメッセージを返す。
func (u *Uploader) Check(f *File) (string, error) {
	msg, err := u.policy.Check(f)
	if err != nil {
		u.record(OutcomeFailed)
		return "", err
	}
	if msg != "" {
		u.record(OutcomeRejected)
	}
	return msg, nil
}

// Save は検証済みのファイルを profile_pictures/<uuid><拡張子> として保存し、URLを返す。
func (u *Uploader) Save(ctx context.Context, f *File) (string, error) {
	key := keyPrefix + uuid.New().String() + f.Extension()

	url, err := u.store.Put(ctx, key, f.Content, f.Size, f.ContentType)
	if err != nil {
		u.record(OutcomeFailed)
		u.logger.Error("failed to store upload",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	u.record(OutcomeStored)
	return url, nil
}

// Discard はURLが指すファイルを削除する。失敗はログに記録するのみ。
func (u *Uploader) Discard(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := u.store.Delete(ctx, url); err != nil {
		u.logger.Warn("failed to delete stored file",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
	}
}

func (u *Uploader) record(outcome string) {
	if u.recorder != nil {
		u.recorder.RecordUpload(outcome)
	}
}
