// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// バリデーションエラーの場合はFieldsにフィールド別のメッセージを保持する。
type APIError struct {
	Code     string              // エラーコード
	Message  string              // エラーメッセージ
	Category string              // カテゴリ: auth, validation, graph, content, media, system
	Action   string              // ユーザー向け対処方法
	Fields   map[string][]string // フィールド別エラー（バリデーションエラー時のみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeSelfFollow          = "SELF_FOLLOW"
	ErrCodeInvalidUpload       = "INVALID_UPLOAD"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeTokenInvalid        = "TOKEN_INVALID"
	ErrCodeIncorrectPassword   = "INCORRECT_PASSWORD"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodePostNotFound        = "POST_NOT_FOUND"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// FieldErrors はフィールド名からエラーメッセージ一覧へのマップ。
// 登録処理では全フィールドの検証結果をまとめて返すために使用する。
type FieldErrors map[string][]string

// Add はフィールドにエラーメッセージを追加する。
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Has は指定フィールドにエラーがあるかを返す。
func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

// Empty はエラーが1件もない場合にtrueを返す。
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// NewValidationError はフィールド別エラーを含むバリデーションエラーを生成する。
func NewValidationError(fields FieldErrors) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "Dados inválidos.",
		Category: "validation",
		Action:   "Corrija os campos indicados e envie novamente.",
		Fields:   fields,
	}
}

// NewFieldError は単一フィールドのバリデーションエラーを生成する。
func NewFieldError(field, message string) *APIError {
	return NewValidationError(FieldErrors{field: {message}})
}

// NewInvalidRequestError はリクエスト形式の不正を表すエラーを生成する。
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
		Action:   "Verifique os dados enviados.",
	}
}

// NewSelfFollowError は自分自身をフォローしようとした場合のエラーを生成する。
func NewSelfFollowError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfFollow,
		Message:  MsgSelfFollow,
		Category: "graph",
		Action:   "Informe outro usuário.",
	}
}

// NewInvalidUploadError はアップロードファイルがポリシーに違反した場合のエラーを生成する。
func NewInvalidUploadError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUpload,
		Message:  message,
		Category: "media",
		Action:   "Envie uma imagem JPEG, PNG, GIF ou WebP de até 5MB.",
		Fields:   FieldErrors{"profile_picture": {message}},
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー名とパスワードのどちらが誤っているかは明かさない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  MsgInvalidCredentials,
		Category: "auth",
		Action:   "Verifique o usuário (ou email) e a senha.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  MsgAuthRequired,
		Category: "auth",
		Action:   "Faça login para continuar.",
	}
}

// NewTokenInvalidError はトークンが無効または期限切れの場合のエラーを生成する。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenInvalid,
		Message:  MsgTokenInvalid,
		Category: "auth",
		Action:   "Renove o token ou faça login novamente.",
	}
}

// NewIncorrectPasswordError は現在のパスワードが一致しない場合のエラーを生成する。
func NewIncorrectPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeIncorrectPassword,
		Message:  MsgCurrentPasswordWrong,
		Category: "auth",
		Action:   "Verifique a senha atual.",
	}
}

// NewForbiddenError は他人のリソースを操作しようとした場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  MsgNotPostAuthor,
		Category: "content",
		Action:   "Apenas o autor pode editar ou excluir a publicação.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  MsgUserNotFound,
		Category: "graph",
		Action:   "Verifique o nome de usuário.",
	}
}

// NewPostNotFoundError は投稿が見つからない場合のエラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("%s: %s", MsgPostNotFound, postID),
		Category: "content",
		Action:   "Verifique o identificador da publicação.",
	}
}

// NewUpstreamUnavailableError は外部ストレージ等に到達できない場合のエラーを生成する。
func NewUpstreamUnavailableError(service string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  fmt.Sprintf("%s: %s", MsgUpstreamUnavailable, service),
		Category: "system",
		Action:   "Tente novamente em alguns instantes.",
	}
}
