package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nao1215/campaign/pkg/migration"
)

// migrationsFS はローカル開発・テスト用のSQLiteスキーマ。
// 本番のPostgresスキーマはホスティング側で管理する。
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// InitSchema はSQLiteデータベースに未適用のマイグレーションを適用する。
// 適用したマイグレーションはlogに記録する。logはnilでもよい。
func (s *Store) InitSchema(ctx context.Context, log logrus.FieldLogger) error {
	if s.dialect != DialectSQLite {
		return fmt.Errorf("スキーマの適用はSQLiteのみ対応しています: %s", s.dialect)
	}
	if err := migration.Run(ctx, s.db, migrationsFS, "migrations", log); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
