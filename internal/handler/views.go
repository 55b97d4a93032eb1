package handler

import (
	"time"

	"github.com/hitoshi/conecta/internal/model"
)

// profileResponse はプロフィール部分のAPIレスポンス。
type profileResponse struct {
	CPF            string    `json:"cpf"`
	ProfilePicture *string   `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Profile  profileResponse `json:"profile"`
}

// userDetailResponse はフォロー集計付きのユーザー情報。
type userDetailResponse struct {
	userResponse
	FollowersCount int  `json:"followers_count"`
	FollowingCount int  `json:"following_count"`
	IsFollowing    bool `json:"is_following"`
}

// postResponse は投稿のAPIレスポンス。
type postResponse struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Author               string    `json:"author"`
	AuthorUsername       string    `json:"author_username"`
	AuthorProfilePicture *string   `json:"author_profile_picture"`
	Content              string    `json:"content"`
	CreatedAt            time.Time `json:"created_at"`
	PublishedAt          time.Time `json:"published_at"`
	LikeCount            int       `json:"like_count"`
	IsLiked              bool      `json:"is_liked"`
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID             string    `json:"id"`
	Post           string    `json:"post"`
	Author         string    `json:"author"`
	AuthorUsername string    `json:"author_username"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func toUserResponse(a *model.Account) userResponse {
	return userResponse{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Profile: profileResponse{
			CPF:            a.Profile.CPF,
			ProfilePicture: a.Profile.AvatarURL,
			CreatedAt:      a.Profile.CreatedAt,
		},
	}
}

func toUserDetailResponse(d *model.AccountDetail) userDetailResponse {
	return userDetailResponse{
		userResponse:   toUserResponse(&d.Account),
		FollowersCount: d.Stats.FollowersCount,
		FollowingCount: d.Stats.FollowingCount,
		IsFollowing:    d.Stats.IsFollowing,
	}
}

func toPostResponse(v *model.PostView) postResponse {
	return postResponse{
		ID:                   v.ID,
		Title:                v.Title,
		Author:               v.AuthorID,
		AuthorUsername:       v.AuthorUsername,
		AuthorProfilePicture: v.AuthorAvatarURL,
		Content:              v.Content,
		CreatedAt:            v.CreatedAt,
		PublishedAt:          v.PublishedAt,
		LikeCount:            v.LikeCount,
		IsLiked:              v.IsLiked,
	}
}

// toPostResponses は空の場合も空配列を返す。
func toPostResponses(views []model.PostView) []postResponse {
	results := make([]postResponse, len(views))
	for i := range views {
		results[i] = toPostResponse(&views[i])
	}
	return results
}

func toCommentResponse(c *model.CommentView) commentResponse {
	return commentResponse{
		ID:             c.ID,
		Post:           c.PostID,
		Author:         c.AuthorID,
		AuthorUsername: c.AuthorUsername,
		Content:        c.Content,
		CreatedAt:      c.CreatedAt,
	}
}
