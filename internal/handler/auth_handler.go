package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/conecta/internal/auth"
	"github.com/hitoshi/conecta/internal/media"
	"github.com/hitoshi/conecta/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.Account, model.TokenPair, error)
	Login(ctx context.Context, identifier, password string) (*model.Account, model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	MaxUploadBytes int64 // 登録時のプロフィール画像の上限
}

// AuthHandler はユーザー登録とトークン発行のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = media.DefaultMaxBytes
	}
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	CPF             string `json:"cpf"`
}

// loginRequest はログインリクエストのボディ。usernameにはメールアドレスも指定できる。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// refreshRequest はトークン更新リクエストのボディ。
type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// tokenResponse はトークンペアのAPIレスポンス。
type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// sessionResponse は登録・ログイン成功時のAPIレスポンス。
type sessionResponse struct {
	User userResponse `json:"user"`
	tokenResponse
}

func newSessionResponse(account *model.Account, pair model.TokenPair) sessionResponse {
	return sessionResponse{
		User:          toUserResponse(account),
		tokenResponse: tokenResponse{Access: pair.Access, Refresh: pair.Refresh},
	}
}

// Register はユーザー登録を処理する。
// JSONまたはmultipart/form-data（profile_pictureを含む場合）を受け付ける。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput

	if isMultipart(r) {
		if apiErr := parseMultipart(w, r, h.config.MaxUploadBytes); apiErr != nil {
			writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
			return
		}
		defer r.MultipartForm.RemoveAll()

		in = auth.RegisterInput{
			Username:        r.FormValue("username"),
			Email:           r.FormValue("email"),
			Password:        r.FormValue("password"),
			PasswordConfirm: r.FormValue("password_confirm"),
			CPF:             r.FormValue("cpf"),
		}
		avatar, closeFile, err := formFile(r, avatarField)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(model.MsgInvalidBody))
			return
		}
		defer closeFile()
		in.Avatar = avatar
	} else {
		var req registerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in = auth.RegisterInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
			CPF:             req.CPF,
		}
	}

	account, pair, err := h.service.Register(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newSessionResponse(account, pair))
}

// Login はユーザー名（またはメールアドレス）とパスワードで認証する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, pair, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newSessionResponse(account, pair))
}

// Refresh はリフレッシュトークンから新しいトークンペアを発行する。
// POST /auth/token/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh})
}
