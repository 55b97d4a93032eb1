package model

import "time"

// PostTitleMaxLength は投稿タイトルの最大文字数。
const PostTitleMaxLength = 200

// Post はユーザーが作成した投稿を表す。
// CreatedAt と PublishedAt は作成時に1回だけ設定され、フィードの並び順には PublishedAt を使う。
type Post struct {
	ID          string
	AuthorID    string
	Title       string
	Content     string
	PublishedAt time.Time
	CreatedAt   time.Time
}

// PostView は著者情報といいね集計を付与した投稿のビュー。
type PostView struct {
	Post
	AuthorUsername  string
	AuthorAvatarURL *string
	LikeCount       int
	IsLiked         bool
}

// Like はユーザーと投稿の組で一意ないいねを表す。
type Like struct {
	ID        string
	UserID    string
	PostID    string
	CreatedAt time.Time
}

// Comment は投稿へのコメント。同一ユーザーが同じ投稿に複数コメントできる。
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// CommentView は著者名を付与したコメントのビュー。
type CommentView struct {
	Comment
	AuthorUsername string
}
