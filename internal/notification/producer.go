package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/campaign/internal/store"
	"github.com/nao1215/campaign/pkg/apperr"
	"github.com/nao1215/campaign/pkg/metrics"
	"github.com/nao1215/campaign/pkg/validate"
)

// Producer は通知配信レコードを作成する。
type Producer struct {
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	// now は作成日時の取得に使用する。テストで差し替える。
	now func() time.Time
	// newID は通知IDの生成に使用する。テストで差し替える。
	newID func() string
}

// NewProducer は新しいProducerを生成する。
func NewProducer(log logrus.FieldLogger, m *metrics.Metrics) *Producer {
	return &Producer{
		log:     log,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
}

// Validate は作成パラメータを検証する。メッセージは利用者にそのまま返す。
// scope=userの場合は有効なユーザーIDが必須、scope=broadcastの場合はユーザーIDを指定できない。
func Validate(p CreateParams) error {
	var problems []string
	if !p.Scope.Valid() {
		problems = append(problems, fmt.Sprintf("invalid scope: %q", p.Scope))
	}
	if !p.Channel.Valid() {
		problems = append(problems, fmt.Sprintf("invalid channel: %q", p.Channel))
	}
	switch p.Scope {
	case ScopeUser:
		if !validate.IsValidID(p.UserID) {
			problems = append(problems, "user_id must be a valid id when scope is user")
		}
	case ScopeBroadcast:
		if p.UserID != "" {
			problems = append(problems, "user_id must be empty when scope is broadcast")
		}
	}
	if strings.TrimSpace(p.Type) == "" {
		problems = append(problems, "type is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		problems = append(problems, "title is required")
	}

	if len(problems) > 0 {
		return &apperr.Error{
			Kind:    apperr.KindInvalidInput,
			Message: strings.Join(problems, "; "),
			Err:     errors.New(strings.Join(problems, "; ")),
		}
	}
	return nil
}

// Create は通知を1件作成する。
// 配信状態はチャネルから決定し、試行回数は0で作成する。リトライは行わない。
// ストアのエラーは利用者向けのエラーに変換し、元のエラーコードはログにのみ記録する。
func (p *Producer) Create(ctx context.Context, st *store.Store, params CreateParams) (*Record, error) {
	if err := Validate(params); err != nil {
		return nil, err
	}

	payload := params.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	rec := Record{
		ID:               p.newID(),
		Scope:            params.Scope,
		Type:             params.Type,
		Title:            params.Title,
		Body:             params.Body,
		Payload:          payload,
		Channel:          params.Channel,
		DeliveryStatus:   InitialDeliveryStatus(params.Channel),
		DeliveryAttempts: 0,
		CreatedAt:        p.now(),
	}
	if params.Scope == ScopeUser {
		userID := params.UserID
		rec.UserID = &userID
	}

	if err := NewRepository(st).Insert(ctx, rec); err != nil {
		translated := store.TranslateWriteError(err)
		p.log.WithFields(logrus.Fields{
			"notification_id":  rec.ID,
			"channel":          rec.Channel,
			"store_error_code": store.ErrorCode(err),
			"kind":             translated.Kind.String(),
		}).WithError(err).Error("通知の作成に失敗")
		return nil, translated
	}

	if p.metrics != nil {
		p.metrics.NotificationsCreated.WithLabelValues(string(rec.Channel), string(rec.DeliveryStatus)).Inc()
	}
	p.log.WithFields(logrus.Fields{
		"notification_id": rec.ID,
		"scope":           rec.Scope,
		"channel":         rec.Channel,
		"delivery_status": rec.DeliveryStatus,
	}).Info("通知を作成しました")

	return &rec, nil
}
