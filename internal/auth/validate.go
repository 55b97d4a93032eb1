package auth

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/conecta/internal/model"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{4,15}$`)

// validate はgo-playground/validatorのインスタンス。キャッシュを共有するため1つだけ生成する。
var validate = validator.New()

// ValidUsername はユーザー名が4〜15文字の英数字とアンダースコアのみで構成されるかを返す。
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidEmail はメールアドレスの形式を検証する。
func ValidEmail(email string) bool {
	return len(email) <= 254 && validate.Var(email, "required,email") == nil
}

// PasswordProblem はパスワードの強度ポリシー違反をメッセージで返す。問題がなければ空文字列。
// ポリシー: 8文字以上、大文字・小文字・数字をそれぞれ1文字以上含む、72バイト以下。
func PasswordProblem(password string) string {
	if len(password) > maxPasswordBytes {
		return model.MsgPasswordTooLong
	}

	var upper, lower, digit bool
	count := 0
	for _, r := range password {
		count++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if count < 8 || !upper || !lower || !digit {
		return model.MsgPasswordWeak
	}
	return ""
}
