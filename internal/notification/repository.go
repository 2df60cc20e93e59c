package notification

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nao1215/campaign/internal/store"
)

const (
	// UserListLimit はユーザー向け一覧で返す最大件数。
	UserListLimit = 20
	// AdminListLimit は管理者向け一覧で返す最大件数。
	AdminListLimit = 100
)

const selectColumns = `id, scope, user_id, type, title, body, payload, channel,
	delivery_status, delivery_attempts, created_at`

// Repository は通知テーブルへのクエリを実行する。
type Repository struct {
	st *store.Store
}

// NewRepository は新しいRepositoryを生成する。
func NewRepository(st *store.Store) *Repository {
	return &Repository{st: st}
}

// Insert は通知を1行挿入する。
func (r *Repository) Insert(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("ペイロードのシリアライズに失敗: %w", err)
	}

	var userID sql.NullString
	if rec.UserID != nil {
		userID = sql.NullString{String: *rec.UserID, Valid: true}
	}

	_, err = r.st.ExecContext(ctx, `
		INSERT INTO notifications (
			id, scope, user_id, type, title, body, payload, channel,
			delivery_status, delivery_attempts, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Scope), userID, rec.Type, rec.Title, rec.Body, string(payload),
		string(rec.Channel), string(rec.DeliveryStatus), rec.DeliveryAttempts, rec.CreatedAt,
	)
	return err
}

// ListForUser はユーザー宛て（scope=user）の通知を新しい順に最大limit件返す。
func (r *Repository) ListForUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	rows, err := r.st.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM notifications
		WHERE user_id = ? AND scope = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, string(ScopeUser), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗: %w", err)
	}
	return scanRecords(rows)
}

// ListRecent は全ての通知を新しい順に最大limit件返す。
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.st.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗: %w", err)
	}
	return scanRecords(rows)
}

// scanRecords は行をRecordのスライスに変換する。
func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer func() { _ = rows.Close() }()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			rec       Record
			scope     string
			userID    sql.NullString
			payload   []byte
			channel   string
			status    string
			createdAt time.Time
		)
		if err := rows.Scan(
			&rec.ID, &scope, &userID, &rec.Type, &rec.Title, &rec.Body, &payload, &channel,
			&status, &rec.DeliveryAttempts, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("通知の読み込みに失敗: %w", err)
		}

		rec.Scope = Scope(scope)
		if userID.Valid {
			uid := userID.String
			rec.UserID = &uid
		}
		if len(payload) > 0 {
			p, err := decodePayload(payload)
			if err != nil {
				return nil, err
			}
			rec.Payload = p
		}
		rec.Channel = Channel(channel)
		rec.DeliveryStatus = DeliveryStatus(status)
		rec.CreatedAt = createdAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("通知一覧の読み込みに失敗: %w", err)
	}
	return records, nil
}

// decodePayload は保存されたペイロードを復元する。
// 数値はjson.Numberのまま保持し、float64への変換による桁落ちを起こさない。
func decodePayload(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("ペイロードのデシリアライズに失敗: %w", err)
	}
	return payload, nil
}
