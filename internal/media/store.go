package media

import (
	"context"
	"io"
	"strings"
)

// Store はアップロードされたファイルを保持するストレージのインターフェース。
// ファイルは公開URLで参照され、削除もURLで行う。
type Store interface {
	// Put はファイルをkeyで保存し、公開URLを返す。
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)

	// Delete はURLが指すファイルを削除する。
	// このストアの公開URL配下にないURLは無視し、nilを返す。
	Delete(ctx context.Context, url string) error
}

// keyFromURL は公開URLからストレージ上のkeyを取り出す。
// baseの配下にない場合はokがfalseになる。
func keyFromURL(base, url string) (key string, ok bool) {
	if url == "" {
		return "", false
	}
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key = strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}
