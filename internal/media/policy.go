// Package media はプロフィール画像のアップロード検証と保存を提供する。
package media

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/hitoshi/conecta/internal/model"
)

// DefaultMaxBytes はアップロードサイズの既定上限（5MiB）。
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// sniffBytes は内容判定のために先頭から読み取るバイト数。
const sniffBytes = 3072

// mimeExtensions は許可MIMEタイプと対応する拡張子。
// image/jpg は一部のクライアントが送る非標準の表記。
var mimeExtensions = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/jpg":  {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
}

// UploadPolicy はアップロードの許可条件。
type UploadPolicy struct {
	MaxBytes          int64
	AllowedMimeTypes  map[string]struct{}
	AllowedExtensions map[string]struct{}
}

// DefaultPolicy はJPEG、PNG、GIF、WebPを許可するポリシーを返す。
// maxBytesが0以下の場合はDefaultMaxBytesを使用する。
func DefaultPolicy(maxBytes int64) UploadPolicy {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	p := UploadPolicy{
		MaxBytes:          maxBytes,
		AllowedMimeTypes:  make(map[string]struct{}, len(mimeExtensions)),
		AllowedExtensions: make(map[string]struct{}),
	}
	for mime, exts := range mimeExtensions {
		p.AllowedMimeTypes[mime] = struct{}{}
		for _, ext := range exts {
			p.AllowedExtensions[ext] = struct{}{}
		}
	}
	return p
}

// File はアップロードされたファイル。
// Contentは内容判定のために先頭を読んだ後、先頭に巻き戻される。
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}

// Extension はファイル名の拡張子を小文字で返す。
func (f *File) Extension() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Check はファイルがポリシーを満たすかを検証し、違反時はユーザー向けメッセージを返す。
// 検証順: 存在、サイズ、宣言されたMIMEタイプ、拡張子、拡張子とMIMEタイプの一致、内容。
func (p UploadPolicy) Check(f *File) (string, error) {
	if f == nil || f.Content == nil || f.Size == 0 {
		return model.MsgFileRequired, nil
	}
	if f.Size > p.MaxBytes {
		return fmt.Sprintf(model.MsgFileTooLarge, humanize.IBytes(uint64(p.MaxBytes))), nil
	}

	declared := strings.ToLower(strings.TrimSpace(f.ContentType))
	if _, ok := p.AllowedMimeTypes[declared]; !ok {
		return model.MsgFileTypeNotAllowed, nil
	}

	ext := f.Extension()
	if _, ok := p.AllowedExtensions[ext]; !ok {
		return model.MsgFileExtInvalid, nil
	}
	if !extensionMatches(declared, ext) {
		return model.MsgFileExtMismatch, nil
	}

	detected, err := sniff(f.Content)
	if err != nil {
		return "", err
	}
	if !detected.Is(canonicalMime(declared)) {
		return model.MsgFileContentMismatch, nil
	}
	return "", nil
}

func extensionMatches(mime, ext string) bool {
	for _, allowed := range mimeExtensions[mime] {
		if allowed == ext {
			return true
		}
	}
	return false
}

func canonicalMime(mime string) string {
	if mime == "image/jpg" {
		return "image/jpeg"
	}
	return mime
}

// sniff は先頭バイトから内容のMIMEタイプを判定し、読み取り位置を先頭に戻す。
func sniff(r io.ReadSeeker) (*mimetype.MIME, error) {
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload header: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}
	return mimetype.Detect(head[:n]), nil
}
