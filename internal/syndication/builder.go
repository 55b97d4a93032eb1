// Package syndication は投稿一覧をRSS 2.0 / Atomフィードとして出力する。
package syndication

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/feeds"
	"github.com/hitoshi/conecta/internal/model"
	"github.com/microcosm-cc/bluemonday"
)

// Format はフィードの出力形式。
type Format string

const (
	FormatRSS  Format = "rss"
	FormatAtom Format = "atom"
)

// untitledExcerptRunes はタイトルなし投稿で本文から作る見出しの最大文字数。
const untitledExcerptRunes = 60

// ParseFormat はクエリパラメータの値を出力形式に変換する。空の場合はRSS。
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatRSS):
		return FormatRSS, true
	case string(FormatAtom):
		return FormatAtom, true
	default:
		return "", false
	}
}

// ContentType は出力形式に対応するContent-Typeを返す。
func (f Format) ContentType() string {
	if f == FormatAtom {
		return "application/atom+xml; charset=utf-8"
	}
	return "application/rss+xml; charset=utf-8"
}

// Builder はユーザーごとの投稿フィードを生成する。
type Builder struct {
	baseURL string
	now     func() time.Time
}

// NewBuilder はBuilderを生成する。baseURLは投稿リンクの生成に使う。
func NewBuilder(baseURL string) *Builder {
	return &Builder{
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Build は著者の投稿一覧をフィードに変換する。
// postsは公開日時の新しい順で渡され、その順序のまま出力する。
func (b *Builder) Build(username string, posts []model.PostView, format Format) (string, error) {
	feed := &feeds.Feed{
		Title:       fmt.Sprintf("conecta - %s", username),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/posts/user/%s", b.baseURL, username)},
		Description: fmt.Sprintf("Publicações de %s", username),
		Author:      &feeds.Author{Name: username},
		Created:     b.now(),
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].PublishedAt
	}

	feed.Items = make([]*feeds.Item, 0, len(posts))
	for _, p := range posts {
		link := fmt.Sprintf("%s/posts/%s", b.baseURL, p.ID)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       itemTitle(p),
			Link:        &feeds.Link{Href: link},
			Description: p.Content,
			Author:      &feeds.Author{Name: p.AuthorUsername},
			Created:     p.PublishedAt,
		})
	}

	var (
		out string
		err error
	)
	switch format {
	case FormatAtom:
		out, err = feed.ToAtom()
	default:
		out, err = feed.ToRss()
	}
	if err != nil {
		return "", fmt.Errorf("failed to render %s feed: %w", format, err)
	}
	return out, nil
}

// itemTitle はタイトルが空の投稿に本文の先頭から見出しを作る。
func itemTitle(p model.PostView) string {
	if p.Title != "" {
		return p.Title
	}
	text := strings.Join(strings.Fields(html.UnescapeString(excerptPolicy.Sanitize(p.Content))), " ")
	if utf8.RuneCountInString(text) <= untitledExcerptRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:untitledExcerptRunes]) + "…"
}

// excerptPolicy は本文から見出しを作る際にタグを空白に置き換えて除去する。
var excerptPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()
