package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore はローカルディスクにファイルを保存するStore実装。
// 開発環境向けで、保存したファイルは /media/ 配下で配信される。
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore はLocalStoreを生成する。dirが存在しない場合は作成する。
// baseURLは配信用の公開URL（例: http://localhost:8080/media）。
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir は保存先ディレクトリを返す。
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put はファイルをdir/keyに書き込む。書き込み途中で失敗した場合はファイルを残さない。
func (s *LocalStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close media file: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

// Delete はURLが指すファイルを削除する。既に存在しない場合もnilを返す。
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	key, ok := keyFromURL(s.baseURL, url)
	if !ok {
		return nil
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}

// path はkeyを保存先ディレクトリ配下のパスに変換する。
// ディレクトリ外を指すkeyはエラーにする。
func (s *LocalStore) path(key string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("invalid media key: %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

// compile-time interface check
var _ Store = (*LocalStore)(nil)
