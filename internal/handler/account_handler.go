package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/conecta/internal/account"
	"github.com/hitoshi/conecta/internal/media"
	"github.com/hitoshi/conecta/internal/middleware"
	"github.com/hitoshi/conecta/internal/model"
)

// AccountServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	Me(ctx context.Context, userID string) (*model.AccountDetail, error)
	Profile(ctx context.Context, username, viewerID string) (*model.AccountDetail, error)
	UpdateUsername(ctx context.Context, userID, username string) (string, error)
	UpdateEmailPassword(ctx context.Context, userID string, in account.CredentialsInput) error
	UpdateAvatar(ctx context.Context, userID string, f *media.File) (string, error)
	// Withdraw はユーザーの退会処理を実行する。
	Withdraw(ctx context.Context, userID string) error
}

// AccountHandler はアカウント管理のHTTPハンドラー。
type AccountHandler struct {
	service        AccountServiceInterface
	maxUploadBytes int64
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface, maxUploadBytes int64) *AccountHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = media.DefaultMaxBytes
	}
	return &AccountHandler{service: service, maxUploadBytes: maxUploadBytes}
}

type updateUsernameRequest struct {
	Username string `json:"username"`
}

type updateUsernameResponse struct {
	Detail   string `json:"detail"`
	Username string `json:"username"`
}

type updateCredentialsRequest struct {
	CurrentPassword string `json:"current_password"`
	Email           string `json:"email"`
	NewPassword     string `json:"new_password"`
}

type updateAvatarResponse struct {
	Detail string `json:"detail"`
	URL    string `json:"url"`
}

// Me はログイン中のユーザー情報をフォロー集計付きで返す。
// GET /auth/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Me(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDetailResponse(detail))
}

// Profile は指定ユーザーのプロフィールを返す。認証は任意。
// GET /auth/profile?username=
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.OptionalUserID(r.Context())

	detail, err := h.service.Profile(r.Context(), r.URL.Query().Get("username"), viewerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDetailResponse(detail))
}

// UpdateUsername はユーザー名を変更する。
// POST /auth/update-username
func (h *AccountHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req updateUsernameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	username, err := h.service.UpdateUsername(r.Context(), userID, req.Username)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updateUsernameResponse{Detail: model.MsgUsernameUpdated, Username: username})
}

// UpdateEmailPassword はメールアドレスとパスワードを変更する。
// POST /auth/update-email-password
func (h *AccountHandler) UpdateEmailPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req updateCredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.UpdateEmailPassword(r.Context(), userID, account.CredentialsInput{
		CurrentPassword: req.CurrentPassword,
		Email:           req.Email,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{Detail: model.MsgCredentialsUpdated})
}

// UpdateProfilePicture はプロフィール画像を差し替える。
// POST /auth/update-profile-picture (multipart/form-data, profile_picture)
func (h *AccountHandler) UpdateProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var avatar *media.File
	if isMultipart(r) {
		if apiErr := parseMultipart(w, r, h.maxUploadBytes); apiErr != nil {
			writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
			return
		}
		defer r.MultipartForm.RemoveAll()

		f, closeFile, err := formFile(r, avatarField)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(model.MsgInvalidBody))
			return
		}
		defer closeFile()
		avatar = f
	}

	url, err := h.service.UpdateAvatar(r.Context(), userID, avatar)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updateAvatarResponse{Detail: model.MsgAvatarUpdated, URL: url})
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /auth/me
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
