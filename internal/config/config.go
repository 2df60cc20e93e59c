// Package config は環境変数からダッシュボードAPIの設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// DriverSQLite はローカル開発・テスト用のSQLiteドライバ名。
	DriverSQLite = "sqlite"
	// DriverPostgres はホスティングされたPostgres用のドライバ名。
	DriverPostgres = "postgres"
)

// Config はダッシュボードAPIの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// DBDriver はデータベースドライバ名（sqlite / postgres）。
	DBDriver string
	// DatabaseURL はデータベース接続文字列。
	DatabaseURL string
	// JWTSecret はセッショントークン検証用の秘密鍵。
	JWTSecret string
	// FrontendURL はCORSで許可するフロントエンドのオリジン。
	FrontendURL string
	// LogLevel はログレベル。
	LogLevel string
	// DevTokens は開発用トークン発行エンドポイントを有効にするかどうか。
	DevTokens bool
}

// Load は.envファイルと環境変数から設定を読み込む。
// .envファイルが存在しない場合は環境変数のみを使用する。
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
	}
	return FromEnv()
}

// FromEnv は現在の環境変数から設定を組み立てる。
func FromEnv() (Config, error) {
	cfg := Config{
		Port:        getEnvOr("PORT", "8080"),
		DBDriver:    getEnvOr("DB_DRIVER", DriverSQLite),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   getEnvOr("JWT_SECRET", "dev-secret-key"),
		FrontendURL: getEnvOr("FRONTEND_URL", "http://localhost:3000"),
		LogLevel:    getEnvOr("LOG_LEVEL", "info"),
	}

	if v := os.Getenv("DEV_TOKENS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("DEV_TOKENSの値が不正です: %q", v)
		}
		cfg.DevTokens = enabled
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "file:/data/dashboard.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DB_DRIVER=postgresの場合はDATABASE_URLが必要です")
		}
	default:
		return Config{}, fmt.Errorf("未対応のDB_DRIVERです: %q", cfg.DBDriver)
	}

	return cfg, nil
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
