// Package store はダッシュボードAPIが使用するデータベースハンドルを提供する。
//
// ホスティングされたPostgres（lib/pq）とローカル開発・テスト用のSQLite
// （modernc.org/sqlite）の2つの方言に対応する。クエリは "?" プレースホルダで
// 記述し、Rebindで方言ごとの形式に変換する。
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Dialect はSQL方言を表す。
type Dialect string

const (
	// DialectSQLite はSQLite方言。
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres はPostgres方言。
	DialectPostgres Dialect = "postgres"
)

// Store はデータベース接続と方言を保持する。
// 接続オブジェクトはステートレスで、複数のリクエストから共有してよい。
type Store struct {
	// db はデータベース接続プール。
	db *sql.DB
	// dialect はSQL方言。
	dialect Dialect
}

// Open はドライバ名と接続文字列からStoreを生成する。
// SQLiteの場合はローカル用スキーマを適用し、その経過をlogに記録する。
func Open(ctx context.Context, driver, dsn string, log logrus.FieldLogger) (*Store, error) {
	dialect := Dialect(driver)
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("未対応のドライバです: %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if dialect == DialectSQLite && strings.Contains(dsn, ":memory:") {
		// インメモリDBは接続ごとに別のデータベースになるため1接続に固定する
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	s := New(db, dialect)
	if dialect == DialectSQLite {
		if err := s.InitSchema(ctx, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// New は既存の接続からStoreを生成する。
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB は内部の接続プールを返す。
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close は接続プールを閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Rebind は "?" プレースホルダを方言に合わせて書き換える。
func (s *Store) Rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// ExecContext はRebind済みのクエリを実行する。
func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.Rebind(query), args...)
}

// QueryContext はRebind済みのクエリで行を取得する。
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.Rebind(query), args...)
}

// QueryRowContext はRebind済みのクエリで1行を取得する。
func (s *Store) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.Rebind(query), args...)
}

// Session は特定のIDのセッションに紐づいたStoreのハンドル。
// 書き込み操作の実行者（レビュー者など）の記録に使用する。
type Session struct {
	*Store
	// ActorID はセッションの所有者のユーザーID。
	ActorID string
}

// As はactorIDのセッションに紐づいたハンドルを返す。
func (s *Store) As(actorID string) *Session {
	return &Session{Store: s, ActorID: actorID}
}
