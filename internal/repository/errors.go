package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgreSQLのエラーコード。
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// 一意制約名。マイグレーションで明示的に命名している。
const (
	ConstraintUsername = "users_username_key"
	ConstraintEmail    = "users_email_key"
	ConstraintCPF      = "profiles_cpf_key"
	ConstraintFollow   = "follows_follower_followed_key"
	ConstraintLike     = "likes_user_post_key"
)

// ErrNotFound は更新・削除対象の行が存在しない場合のエラー。
var ErrNotFound = errors.New("record not found")

// ErrReferenceMissing は挿入時に参照先の行（投稿やユーザー）が存在しなかった場合のエラー。
// 存在確認の後に参照先が削除された場合に発生する。
var ErrReferenceMissing = errors.New("referenced record not found")

// UniqueViolationError は一意制約違反を表す。
// 事前チェックをすり抜けた同時登録などで発生する。
type UniqueViolationError struct {
	Constraint string
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique violation on %s: %v", e.Constraint, e.Err)
}

// Unwrap は元のドライバエラーを返す。
func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

// asUniqueViolation はドライバエラーが一意制約違反であれば *UniqueViolationError に変換する。
// それ以外はnilを返す。
func asUniqueViolation(err error) *UniqueViolationError {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return &UniqueViolationError{Constraint: pqErr.Constraint, Err: err}
	}
	return nil
}

// isForeignKeyViolation はドライバエラーが外部キー制約違反かを返す。
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == foreignKeyViolationCode
}
