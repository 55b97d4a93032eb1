package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/conecta/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	Logger            *slog.Logger
	HTTPRecorder      middleware.HTTPRecorder // nilの場合はメトリクスを記録しない

	// 運用
	HealthChecker  Pinger
	MetricsHandler http.Handler // nilの場合は/metricsを公開しない

	// 認証・アカウント
	AuthService    AuthServiceInterface
	AuthConfig     AuthHandlerConfig
	AccountService AccountServiceInterface

	// フォロー関係
	GraphService GraphServiceInterface

	// 投稿
	PostService  PostServiceInterface
	FeedRenderer FeedRenderer

	// MediaDir はローカルストア使用時に/media/以下で配信するディレクトリ。空なら配信しない。
	MediaDir string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → CORS → SecurityHeaders → StripSlashes → (Optional)Auth
//
// 認証は任意認証グループと必須認証グループに分けて適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(chimw.StripSlashes)

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	accountHandler := NewAccountHandler(deps.AccountService, deps.AuthConfig.MaxUploadBytes)
	graphHandler := NewGraphHandler(deps.GraphService)
	postHandler := NewPostHandler(deps.PostService)
	feedHandler := NewSyndicationHandler(deps.FeedRenderer)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 認証不要のルート ---
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	if deps.MediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(deps.MediaDir))))
	}

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/token/refresh", authHandler.Refresh)
	r.Get("/auth/user-followers", graphHandler.UserFollowers)
	r.Get("/auth/user-following", graphHandler.UserFollowing)
	r.Get("/posts/user/{username}/rss", feedHandler.AuthorFeed)

	// --- 認証が任意のルート ---
	// トークンがあれば閲覧者として扱い、is_following / is_liked を算出する
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalAuthMiddleware(deps.Authenticator))

		r.Get("/auth/profile", accountHandler.Profile)
		r.Get("/posts", postHandler.List)
		r.Get("/posts/user/{username}", postHandler.ByAuthor)
		r.Get("/posts/{id}", postHandler.Get)
		r.Get("/posts/{id}/comments", postHandler.ListComments)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))

		// アカウント管理
		r.Get("/auth/me", accountHandler.Me)
		r.Delete("/auth/me", accountHandler.Withdraw)
		r.Post("/auth/update-username", accountHandler.UpdateUsername)
		r.Post("/auth/update-email-password", accountHandler.UpdateEmailPassword)
		r.Post("/auth/update-profile-picture", accountHandler.UpdateProfilePicture)

		// フォロー関係
		r.Post("/auth/follow", graphHandler.Follow)
		r.Post("/auth/unfollow", graphHandler.Unfollow)
		r.Get("/auth/following", graphHandler.Following)

		// 投稿
		r.Post("/posts", postHandler.Create)
		r.Get("/posts/liked", postHandler.Liked)
		r.Put("/posts/{id}", postHandler.Update)
		r.Patch("/posts/{id}", postHandler.Patch)
		r.Delete("/posts/{id}", postHandler.Delete)
		r.Post("/posts/{id}/like", postHandler.Like)
		r.Post("/posts/{id}/unlike", postHandler.Unlike)
		r.Post("/posts/{id}/comments", postHandler.CreateComment)
	})

	return r
}
