// Package character はキャラクター審査のクエリを提供する。
package character

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/campaign/internal/store"
	"github.com/nao1215/campaign/pkg/apperr"
)

// Status はキャラクターの審査状態を表す。
type Status string

const (
	// StatusPending は審査待ち。
	StatusPending Status = "pending"
	// StatusApproved は承認済み。
	StatusApproved Status = "approved"
	// StatusRejected は差し戻し。
	StatusRejected Status = "rejected"
)

// Character はプレイヤーが登録したキャラクター。
type Character struct {
	// ID はキャラクターの一意識別子。
	ID string `json:"id"`
	// UserID は所有者のユーザーID。
	UserID string `json:"user_id"`
	// Name はキャラクター名。
	Name string `json:"name"`
	// Status は審査状態。
	Status Status `json:"status"`
	// RejectionReason は差し戻し理由。
	RejectionReason *string `json:"rejection_reason"`
	// ReviewedBy は審査した管理者のユーザーID。
	ReviewedBy *string `json:"reviewed_by"`
	// ReviewedAt は審査日時。
	ReviewedAt *time.Time `json:"reviewed_at"`
	// CreatedAt は登録日時。
	CreatedAt time.Time `json:"created_at"`
}

const selectColumns = `id, user_id, name, status, rejection_reason, reviewed_by, reviewed_at, created_at`

// Repository はキャラクターテーブルへのクエリを実行する。
type Repository struct {
	st *store.Store
}

// NewRepository は新しいRepositoryを生成する。
func NewRepository(st *store.Store) *Repository {
	return &Repository{st: st}
}

// Get はIDでキャラクターを取得する。存在しない場合はKindNotFoundを返す。
func (r *Repository) Get(ctx context.Context, id string) (*Character, error) {
	row := r.st.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM characters WHERE id = ?`, id)
	ch, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("キャラクターの取得に失敗: %w", err)
	}
	return ch, nil
}

// ListPending は審査待ちのキャラクターを登録の古い順に返す。
func (r *Repository) ListPending(ctx context.Context) ([]Character, error) {
	rows, err := r.st.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM characters
		WHERE status = ?
		ORDER BY created_at ASC, id ASC`,
		string(StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("審査キューの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	characters := make([]Character, 0)
	for rows.Next() {
		ch, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("キャラクターの読み込みに失敗: %w", err)
		}
		characters = append(characters, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("審査キューの読み込みに失敗: %w", err)
	}
	return characters, nil
}

// ReviewParams は審査結果のパラメータ。
type ReviewParams struct {
	// ID は審査対象のキャラクターID。
	ID string
	// Status は審査結果（approved / rejected）。
	Status Status
	// Reason は差し戻し理由。承認時は空にする。
	Reason string
	// ReviewedAt は審査日時。
	ReviewedAt time.Time
}

// Review は審査待ちのキャラクターの審査結果を記録し、更新後のキャラクターを返す。
// 審査者はセッションの所有者になる。審査待ちのキャラクターが存在しない場合はKindNotFoundを返す。
func (r *Repository) Review(ctx context.Context, sess *store.Session, p ReviewParams) (*Character, error) {
	if p.Status != StatusApproved && p.Status != StatusRejected {
		return nil, apperr.New(apperr.KindInvalidInput, fmt.Errorf("審査結果が不正です: %q", p.Status))
	}

	var reason sql.NullString
	if p.Status == StatusRejected && p.Reason != "" {
		reason = sql.NullString{String: p.Reason, Valid: true}
	}

	res, err := sess.ExecContext(ctx, `
		UPDATE characters
		SET status = ?, rejection_reason = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ? AND status = ?`,
		string(p.Status), reason, sess.ActorID, p.ReviewedAt, p.ID, string(StatusPending),
	)
	if err != nil {
		return nil, store.TranslateWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	if affected == 0 {
		return nil, apperr.New(apperr.KindNotFound, fmt.Errorf("審査待ちのキャラクターが存在しません: %s", p.ID))
	}

	return r.Get(ctx, p.ID)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scan は1行をCharacterに変換する。
func scan(row rowScanner) (*Character, error) {
	var (
		ch         Character
		status     string
		reason     sql.NullString
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
	)
	if err := row.Scan(&ch.ID, &ch.UserID, &ch.Name, &status, &reason, &reviewedBy, &reviewedAt, &ch.CreatedAt); err != nil {
		return nil, err
	}
	ch.Status = Status(status)
	if reason.Valid {
		ch.RejectionReason = &reason.String
	}
	if reviewedBy.Valid {
		ch.ReviewedBy = &reviewedBy.String
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time.UTC()
		ch.ReviewedAt = &t
	}
	ch.CreatedAt = ch.CreatedAt.UTC()
	return &ch, nil
}
