package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/conecta/internal/model"
	"github.com/hitoshi/conecta/internal/syndication"
)

// FeedRenderer は著者フィードを生成するインターフェース。
type FeedRenderer interface {
	RenderAuthorFeed(ctx context.Context, username string, format syndication.Format) (string, error)
}

// SyndicationHandler は投稿のRSS/Atom配信のHTTPハンドラー。
type SyndicationHandler struct {
	renderer FeedRenderer
}

// NewSyndicationHandler はSyndicationHandlerを生成する。
func NewSyndicationHandler(renderer FeedRenderer) *SyndicationHandler {
	return &SyndicationHandler{renderer: renderer}
}

// AuthorFeed は指定ユーザーの投稿をフィードとして返す。既定はRSS 2.0。
// GET /posts/user/{username}/rss?format=atom
func (h *SyndicationHandler) AuthorFeed(w http.ResponseWriter, r *http.Request) {
	format, ok := syndication.ParseFormat(r.URL.Query().Get("format"))
	if !ok {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(model.MsgFeedFormatInvalid))
		return
	}

	body, err := h.renderer.RenderAuthorFeed(r.Context(), chi.URLParam(r, "username"), format)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		slog.Warn("failed to write feed", slog.String("error", err.Error()))
	}
}
