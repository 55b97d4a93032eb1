// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービスに登録されたアカウント（Identity）を表す。
// Username と Email はそれぞれ全体で一意であり、大文字小文字を区別して比較する。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile はユーザーと1:1で作成されるプロフィール情報を表す。
type Profile struct {
	UserID    string
	CPF       string  // NNN.NNN.NNN-NN 形式、全体で一意
	AvatarURL *string // 未設定の場合はnil
	CreatedAt time.Time
}

// Account はユーザーとプロフィールを結合したビュー。
type Account struct {
	User
	Profile Profile
}

// GraphStats はプロフィール表示時のフォロー関係の集計値。
type GraphStats struct {
	FollowersCount int
	FollowingCount int
	// IsFollowing は閲覧者が対象ユーザーをフォローしているか。未認証の場合は常にfalse。
	IsFollowing bool
}

// AccountDetail はフォロー集計付きのアカウント情報。
type AccountDetail struct {
	Account
	Stats GraphStats
}

// Follow はフォロー関係（follower → followed の有向辺）を表す。
type Follow struct {
	ID         string
	FollowerID string
	FollowedID string
	CreatedAt  time.Time
}

// TokenPair はログイン成功時に発行されるアクセストークンとリフレッシュトークンの組。
type TokenPair struct {
	Access  string
	Refresh string
}
