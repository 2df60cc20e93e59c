package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LookupRole はユーザーIDに対応するロールを取得する。
// ロールの行が存在しない場合はfound=falseを返し、エラーにはしない。
func (s *Store) LookupRole(ctx context.Context, userID string) (role string, found bool, err error) {
	err = s.QueryRowContext(ctx, "SELECT role FROM profiles WHERE id = ?", userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ロールの取得に失敗: %w", err)
	}
	return role, true, nil
}

// UpsertProfile はプロフィールを作成または更新する。
// ローカル開発用の開発トークン発行とテストで使用する。
func (s *Store) UpsertProfile(ctx context.Context, userID, role, displayName string) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO profiles (id, role, display_name) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET role = excluded.role, display_name = excluded.display_name`,
		userID, role, displayName)
	if err != nil {
		return fmt.Errorf("プロフィールの保存に失敗: %w", err)
	}
	return nil
}
