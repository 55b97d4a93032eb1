package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/conecta/internal/model"
)

// GraphServiceInterface はフォロー関係ハンドラーが必要とするサービスインターフェース。
type GraphServiceInterface interface {
	Follow(ctx context.Context, actorID, targetUsername string) (bool, error)
	Unfollow(ctx context.Context, actorID, targetUsername string) (bool, error)
	Following(ctx context.Context, actorID string) ([]string, error)
	FollowersOf(ctx context.Context, username string) ([]string, error)
	FollowingOf(ctx context.Context, username string) ([]string, error)
}

// GraphHandler はフォロー関係のHTTPハンドラー。
type GraphHandler struct {
	service GraphServiceInterface
}

// NewGraphHandler はGraphHandlerを生成する。
func NewGraphHandler(service GraphServiceInterface) *GraphHandler {
	return &GraphHandler{service: service}
}

type followRequest struct {
	Username string `json:"username"`
}

type followResponse struct {
	Detail  string `json:"detail"`
	Created bool   `json:"created"`
}

type unfollowResponse struct {
	Detail  string `json:"detail"`
	Deleted bool   `json:"deleted"`
}

type followingResponse struct {
	Following []string `json:"following"`
}

type followersResponse struct {
	Followers []string `json:"followers"`
}

// Follow は指定ユーザーをフォローする。
// 新規作成時は201、既にフォロー済みの場合は200を返す。
// POST /auth/follow
func (h *GraphHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req followRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	target := strings.TrimSpace(req.Username)

	created, err := h.service.Follow(r.Context(), userID, target)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if created {
		writeJSON(w, http.StatusCreated, followResponse{Detail: fmt.Sprintf(model.MsgFollowCreated, target), Created: true})
		return
	}
	writeJSON(w, http.StatusOK, followResponse{Detail: fmt.Sprintf(model.MsgFollowExisting, target)})
}

// Unfollow は指定ユーザーのフォローを解除する。フォローしていなかった場合も200を返す。
// POST /auth/unfollow
func (h *GraphHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req followRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	target := strings.TrimSpace(req.Username)

	deleted, err := h.service.Unfollow(r.Context(), userID, target)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	msg := model.MsgNotFollowing
	if deleted {
		msg = model.MsgUnfollowed
	}
	writeJSON(w, http.StatusOK, unfollowResponse{Detail: fmt.Sprintf(msg, target), Deleted: deleted})
}

// Following はログイン中のユーザーがフォローしているユーザー名一覧を返す。
// GET /auth/following
func (h *GraphHandler) Following(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	names, err := h.service.Following(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followingResponse{Following: names})
}

// UserFollowers は指定ユーザーのフォロワー一覧を返す。
// GET /auth/user-followers?username=
func (h *GraphHandler) UserFollowers(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.FollowersOf(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followersResponse{Followers: names})
}

// UserFollowing は指定ユーザーがフォローしているユーザー一覧を返す。
// GET /auth/user-following?username=
func (h *GraphHandler) UserFollowing(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.FollowingOf(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followingResponse{Following: names})
}
