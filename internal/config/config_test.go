package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv はテストに影響する環境変数を空にする。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DB_DRIVER", "DATABASE_URL", "JWT_SECRET", "FRONTEND_URL", "LOG_LEVEL", "DEV_TOKENS"} {
		t.Setenv(key, "")
	}
}

// TestFromEnv は環境変数から設定を組み立てられることを検証する。
func TestFromEnv(t *testing.T) {
	t.Run("未設定の場合はデフォルト値を使うこと", func(t *testing.T) {
		clearEnv(t)

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, DriverSQLite, cfg.DBDriver)
		assert.Contains(t, cfg.DatabaseURL, "dashboard.db")
		assert.Equal(t, "dev-secret-key", cfg.JWTSecret)
		assert.False(t, cfg.DevTokens)
	})

	t.Run("postgresを指定できること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "postgres://app@db.example.com/app?sslmode=require")
		t.Setenv("DEV_TOKENS", "true")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, DriverPostgres, cfg.DBDriver)
		assert.Equal(t, "postgres://app@db.example.com/app?sslmode=require", cfg.DatabaseURL)
		assert.True(t, cfg.DevTokens)
	})

	t.Run("postgresでDATABASE_URLがない場合はエラーになること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DRIVER", "postgres")

		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("未対応のドライバはエラーになること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DRIVER", "mysql")

		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("DEV_TOKENSが不正な値の場合はエラーになること", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DEV_TOKENS", "maybe")

		_, err := FromEnv()
		assert.Error(t, err)
	})
}
