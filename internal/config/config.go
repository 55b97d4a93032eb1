package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// メディア保存先の種別。
const (
	MediaBackendLocal = "local"
	MediaBackendMinIO = "minio"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string
	DBMaxOpenConns int

	// Token
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int

	// CPF verifier
	CPFVerifierURL     string
	CPFVerifierTimeout time.Duration
	CPFVerifierEnabled bool

	// Media
	MediaBackend   string
	MediaLocalDir  string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string
	UploadMaxBytes int64

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は不足分をまとめてエラーとして返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.BaseURL = strings.TrimRight(os.Getenv("BASE_URL"), "/")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.MediaBackend = strings.ToLower(getEnvString("MEDIA_BACKEND", MediaBackendLocal))
	if cfg.MediaBackend == MediaBackendMinIO {
		cfg.MinIOEndpoint = os.Getenv("MINIO_ENDPOINT")
		cfg.MinIOAccessKey = os.Getenv("MINIO_ACCESS_KEY")
		cfg.MinIOSecretKey = os.Getenv("MINIO_SECRET_KEY")
		if cfg.MinIOEndpoint == "" {
			missing = append(missing, "MINIO_ENDPOINT")
		}
		if cfg.MinIOAccessKey == "" {
			missing = append(missing, "MINIO_ACCESS_KEY")
		}
		if cfg.MinIOSecretKey == "" {
			missing = append(missing, "MINIO_SECRET_KEY")
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if cfg.MediaBackend != MediaBackendLocal && cfg.MediaBackend != MediaBackendMinIO {
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND: %q (want %q or %q)",
			cfg.MediaBackend, MediaBackendLocal, MediaBackendMinIO)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.AccessTokenTTL = getEnvDuration("ACCESS_TOKEN_TTL", 5*time.Minute)
	cfg.RefreshTokenTTL = getEnvDuration("REFRESH_TOKEN_TTL", 24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.CPFVerifierURL = getEnvString("CPF_VERIFIER_URL", "https://www.receitaws.com.br/v1/cpf")
	cfg.CPFVerifierTimeout = getEnvDuration("CPF_VERIFIER_TIMEOUT", 5*time.Second)
	cfg.CPFVerifierEnabled = getEnvBool("CPF_VERIFIER_ENABLED", true)
	cfg.MediaLocalDir = getEnvString("MEDIA_LOCAL_DIR", "./media")
	cfg.MinIOBucket = getEnvString("MINIO_BUCKET", "conecta")
	cfg.MinIOUseSSL = getEnvBool("MINIO_USE_SSL", false)
	cfg.MinIOPublicURL = strings.TrimRight(getEnvString("MINIO_PUBLIC_URL", defaultMinIOPublicURL(cfg)), "/")
	cfg.UploadMaxBytes = getEnvInt64("UPLOAD_MAX_BYTES", 5242880)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// defaultMinIOPublicURL はMinIOのオブジェクト公開URLの既定値（scheme://endpoint/bucket）を返す。
func defaultMinIOPublicURL(cfg *Config) string {
	if cfg.MinIOEndpoint == "" {
		return ""
	}
	scheme := "http"
	if getEnvBool("MINIO_USE_SSL", false) {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.MinIOEndpoint, getEnvString("MINIO_BUCKET", "conecta"))
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
