package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/conecta/internal/account"
	"github.com/hitoshi/conecta/internal/auth"
	"github.com/hitoshi/conecta/internal/config"
	"github.com/hitoshi/conecta/internal/cpf"
	"github.com/hitoshi/conecta/internal/database"
	"github.com/hitoshi/conecta/internal/graph"
	"github.com/hitoshi/conecta/internal/handler"
	"github.com/hitoshi/conecta/internal/logger"
	"github.com/hitoshi/conecta/internal/media"
	"github.com/hitoshi/conecta/internal/metrics"
	"github.com/hitoshi/conecta/internal/post"
	"github.com/hitoshi/conecta/internal/repository"
	"github.com/hitoshi/conecta/internal/security"
	"github.com/hitoshi/conecta/internal/syndication"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("media_backend", cfg.MediaBackend),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db, 5*time.Second); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. メディアストアの初期化
	store, mediaDir, err := newMediaStore(context.Background(), cfg)
	if err != nil {
		return err
	}

	router, err := buildRouter(cfg, db, store, mediaDir)
	if err != nil {
		return err
	}

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter はリポジトリ、サービス、ハンドラーを組み立ててルーターを返す。
// mediaDirはローカルストア使用時のみ指定する。
func buildRouter(cfg *config.Config, db *sql.DB, store media.Store, mediaDir string) (http.Handler, error) {
	// 1. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	followRepo := repository.NewPostgresFollowRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	likeRepo := repository.NewPostgresLikeRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)

	// 3. 外部サービスとセキュリティ
	verifier, err := newCPFVerifier(cfg, collector)
	if err != nil {
		return nil, err
	}
	uploader := media.NewUploader(store, media.DefaultPolicy(cfg.UploadMaxBytes), slog.Default(), collector)
	sanitizer := security.NewContentSanitizer()
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// 4. ドメインサービスの初期化
	authService := auth.NewService(userRepo, tokens, verifier, uploader, collector,
		auth.ServiceConfig{BcryptCost: cfg.BcryptCost},
	)
	accountService := account.NewService(userRepo, followRepo, uploader, cfg.BcryptCost)
	graphService := graph.NewService(userRepo, followRepo)
	postService := post.NewService(postRepo, likeRepo, commentRepo, userRepo, sanitizer)

	// 5. ルーターの構築
	deps := &handler.RouterDeps{
		Authenticator:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Logger:            slog.Default(),
		HTTPRecorder:      collector,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),

		AuthService:    authService,
		AuthConfig:     handler.AuthHandlerConfig{MaxUploadBytes: cfg.UploadMaxBytes},
		AccountService: accountService,

		GraphService: graphService,

		PostService:  postService,
		FeedRenderer: handler.NewSyndicationAdapter(postService, syndication.NewBuilder(cfg.BaseURL)),

		MediaDir: mediaDir,
	}

	return handler.NewRouter(deps), nil
}

// newMediaStore は設定に応じたメディアストアを生成する。
// ローカルストアの場合は配信用ディレクトリも返す。
func newMediaStore(ctx context.Context, cfg *config.Config) (media.Store, string, error) {
	if cfg.MediaBackend == config.MediaBackendMinIO {
		store, err := media.NewMinIOStore(media.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
			PublicURL: cfg.MinIOPublicURL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to create minio store: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, "", fmt.Errorf("failed to prepare minio bucket: %w", err)
		}
		slog.Info("media store ready",
			slog.String("backend", config.MediaBackendMinIO),
			slog.String("bucket", cfg.MinIOBucket),
		)
		return store, "", nil
	}

	publicURL, err := url.JoinPath(cfg.BaseURL, "media")
	if err != nil {
		return nil, "", fmt.Errorf("invalid BASE_URL: %w", err)
	}
	store, err := media.NewLocalStore(cfg.MediaLocalDir, publicURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create local media store: %w", err)
	}
	slog.Info("media store ready",
		slog.String("backend", config.MediaBackendLocal),
		slog.String("dir", store.Dir()),
	)
	return store, store.Dir(), nil
}

// newCPFVerifier は外部CPF照会クライアントを生成する。
// 無効化されている場合は常に有効と判定するVerifierを返す。
func newCPFVerifier(cfg *config.Config, recorder cpf.OutcomeRecorder) (cpf.Verifier, error) {
	if !cfg.CPFVerifierEnabled {
		slog.Warn("external CPF verification is disabled")
		return cpf.Disabled{}, nil
	}

	guard := security.NewSSRFGuard()
	if err := guard.ValidateURL(cfg.CPFVerifierURL); err != nil {
		return nil, fmt.Errorf("invalid CPF_VERIFIER_URL: %w", err)
	}
	return cpf.NewClient(
		guard.NewSafeClient(cfg.CPFVerifierTimeout),
		cfg.CPFVerifierURL,
		slog.Default(),
		recorder,
	), nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	if u.User != nil {
		u.User = url.User("***")
	}
	u.RawQuery = ""
	return u.String()
}
