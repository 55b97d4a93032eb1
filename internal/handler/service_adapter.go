package handler

import (
	"context"

	"github.com/hitoshi/conecta/internal/model"
	"github.com/hitoshi/conecta/internal/syndication"
)

// AuthorPostLister は著者の投稿一覧を取得するインターフェース。post.Serviceが満たす。
type AuthorPostLister interface {
	ListByAuthor(ctx context.Context, username, viewerID string) ([]model.PostView, error)
}

// SyndicationAdapter は投稿サービスとフィード生成を FeedRenderer に適合させるアダプタ。
type SyndicationAdapter struct {
	posts   AuthorPostLister
	builder *syndication.Builder
}

// NewSyndicationAdapter はSyndicationAdapterを生成する。
func NewSyndicationAdapter(posts AuthorPostLister, builder *syndication.Builder) *SyndicationAdapter {
	return &SyndicationAdapter{posts: posts, builder: builder}
}

// RenderAuthorFeed は著者の投稿を取得しフィード文字列を返す。
// フィードは匿名で配信するため閲覧者は指定しない。
func (a *SyndicationAdapter) RenderAuthorFeed(ctx context.Context, username string, format syndication.Format) (string, error) {
	posts, err := a.posts.ListByAuthor(ctx, username, "")
	if err != nil {
		return "", err
	}
	return a.builder.Build(username, posts, format)
}

// --- compile-time interface checks ---

var _ FeedRenderer = (*SyndicationAdapter)(nil)
