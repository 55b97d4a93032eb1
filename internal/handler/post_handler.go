package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/conecta/internal/middleware"
	"github.com/hitoshi/conecta/internal/model"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	Create(ctx context.Context, actorID, title, content string) (*model.PostView, error)
	List(ctx context.Context, viewerID string) ([]model.PostView, error)
	ListByAuthor(ctx context.Context, username, viewerID string) ([]model.PostView, error)
	Get(ctx context.Context, postID, viewerID string) (*model.PostView, error)
	Update(ctx context.Context, actorID, postID, title, content string) (*model.PostView, error)
	Delete(ctx context.Context, actorID, postID string) error

	Like(ctx context.Context, actorID, postID string) (bool, error)
	Unlike(ctx context.Context, actorID, postID string) (bool, error)
	Liked(ctx context.Context, actorID string) ([]model.PostView, error)

	ListComments(ctx context.Context, postID string) ([]model.CommentView, error)
	CreateComment(ctx context.Context, actorID, postID, content string) (*model.CommentView, error)
}

// PostHandler は投稿、いいね、コメントのHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// patchPostRequest は部分更新のボディ。省略された項目は現在の値を維持する。
type patchPostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type likeResponse struct {
	Detail  string `json:"detail"`
	Created bool   `json:"created"`
}

type unlikeResponse struct {
	Detail  string `json:"detail"`
	Deleted bool   `json:"deleted"`
}

// postIDParam はパスの投稿IDを返す。UUIDとして不正な場合は404を書き込みfalseを返す。
func postIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(id))
		return "", false
	}
	return id, true
}

// List は全投稿を公開日時の新しい順で返す。
// GET /posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context(), middleware.OptionalUserID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponses(views))
}

// Create は投稿を作成する。著者はログイン中のユーザーになる。
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.service.Create(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(view))
}

// Get は投稿を1件返す。
// GET /posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), postID, middleware.OptionalUserID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(view))
}

// Update はタイトルと本文を置き換える。著者本人のみ実行できる。
// PUT /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}
	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.service.Update(r.Context(), userID, postID, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(view))
}

// Patch は指定された項目だけを更新する。
// PATCH /posts/{id}
func (h *PostHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}
	var req patchPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	current, err := h.service.Get(r.Context(), postID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	title, content := current.Title, current.Content
	if req.Title != nil {
		title = *req.Title
	}
	if req.Content != nil {
		content = *req.Content
	}

	view, err := h.service.Update(r.Context(), userID, postID, title, content)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(view))
}

// Delete は投稿を削除する。著者本人のみ実行できる。
// DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, postID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ByAuthor は指定ユーザーの投稿を返す。
// GET /posts/user/{username}
func (h *PostHandler) ByAuthor(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListByAuthor(r.Context(), chi.URLParam(r, "username"), middleware.OptionalUserID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponses(views))
}

// Like は投稿にいいねする。新規作成時は201、既にいいね済みの場合は200を返す。
// POST /posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	created, err := h.service.Like(r.Context(), userID, postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if created {
		writeJSON(w, http.StatusCreated, likeResponse{Detail: model.MsgLiked, Created: true})
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Detail: model.MsgAlreadyLiked})
}

// Unlike はいいねを取り消す。いいねしていなかった場合も200を返す。
// POST /posts/{id}/unlike
func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Unlike(r.Context(), userID, postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	msg := model.MsgNotLiked
	if deleted {
		msg = model.MsgUnliked
	}
	writeJSON(w, http.StatusOK, unlikeResponse{Detail: msg, Deleted: deleted})
}

// Liked はログイン中のユーザーがいいねした投稿を、いいねの新しい順で返す。
// GET /posts/liked
func (h *PostHandler) Liked(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	views, err := h.service.Liked(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponses(views))
}

// ListComments は投稿のコメントを古い順で返す。
// GET /posts/{id}/comments
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	comments, err := h.service.ListComments(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	results := make([]commentResponse, len(comments))
	for i := range comments {
		results[i] = toCommentResponse(&comments[i])
	}
	writeJSON(w, http.StatusOK, results)
}

// CreateComment はコメントを作成する。著者と投稿は認証情報とパスから決まる。
// POST /posts/{id}/comments
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.CreateComment(r.Context(), userID, postID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}
