// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は投稿とコメントの入力をサニタイズし、
// 他ユーザーのブラウザでスクリプトが実行されることを防ぐ。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー投稿テキストのサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// Sanitize は投稿本文をサニタイズする。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em）のみを通過させ、
	// aタグのhrefはhttp, https, mailtoのみ許可する。
	Sanitize(rawHTML string) string

	// SanitizeText はタイトルやコメントなど、HTMLを一切許可しないフィールドをサニタイズする。
	// 全てのタグを除去し、エスケープされた文字を元に戻したプレーンテキストを返す。
	SanitizeText(raw string) string
}

type contentSanitizer struct {
	body *bluemonday.Policy
	text *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// bluemondayのポリシーは生成後に変更しないため、複数goroutineから安全に使用できる。
func NewContentSanitizer() *contentSanitizer {
	body := bluemonday.NewPolicy()
	body.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)
	body.AllowAttrs("href").OnElements("a")
	body.AllowURLSchemes("http", "https", "mailto")
	body.AllowRelativeURLs(false)
	body.AddTargetBlankToFullyQualifiedLinks(true)
	body.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		body: body,
		text: bluemonday.StrictPolicy(),
	}
}

// Sanitize は投稿本文をサニタイズする。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return strings.TrimSpace(s.body.Sanitize(rawHTML))
}

// SanitizeText はHTMLタグを全て除去する。
// bluemondayは残ったテキストもエスケープするため、保存前に元の文字へ戻す。
func (s *contentSanitizer) SanitizeText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.text.Sanitize(raw)))
}

// compile-time interface check
var _ ContentSanitizerService = (*contentSanitizer)(nil)
