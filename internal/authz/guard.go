// Package authz は管理者専用操作の認可ガードを提供する。
//
// ガードはリクエストのセッションからIDを解決し、ストアのロールを毎回参照して
// 許可・拒否を判断する。ロールはキャッシュしないため、降格されたユーザーは
// 次の管理者操作で即座に拒否される。
package authz

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/nao1215/campaign/internal/store"
	"github.com/nao1215/campaign/pkg/apperr"
	"github.com/nao1215/campaign/pkg/metrics"
	"github.com/nao1215/campaign/pkg/middleware"
	"github.com/nao1215/campaign/pkg/validate"
)

// RoleAdmin は管理者ロールの値。完全一致のみ管理者として扱う。
const RoleAdmin = "admin"

// Reason は拒否理由を表す。
type Reason string

const (
	// ReasonNone は許可された場合の理由。
	ReasonNone Reason = ""
	// ReasonUnauthenticated はIDを解決できなかったことを表す。
	ReasonUnauthenticated Reason = "UNAUTHENTICATED"
	// ReasonForbidden はロールが管理者でないことを表す。
	ReasonForbidden Reason = "FORBIDDEN"
	// ReasonCheckFailed はロールの確認処理が失敗したことを表す。
	ReasonCheckFailed Reason = "CHECK_FAILED"
)

// Identity はIDプロバイダーから解決したユーザー。
type Identity struct {
	// UserID はユーザーの一意識別子。
	UserID string
}

// Decision はリクエストごとに算出する認可判断。永続化しない。
type Decision struct {
	// Allowed は許可されたかどうか。
	Allowed bool
	// Identity は解決できたID。未認証の場合はnil。
	Identity *Identity
	// Reason は拒否理由。
	Reason Reason
	// Err はReasonCheckFailedの原因となったエラー。
	Err error
}

// Admin はガードを通過した管理者とそのセッションに紐づいたストアのハンドル。
type Admin struct {
	// Identity は管理者のID。
	Identity Identity
	// Store は管理者のセッションに紐づいたストアのハンドル。
	Store *store.Session
}

// StoreProvider は共有ストアを返す。
type StoreProvider interface {
	Get(ctx context.Context) (*store.Store, error)
}

// Guard は管理者ガード。
type Guard struct {
	stores  StoreProvider
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewGuard は新しいGuardを生成する。
func NewGuard(stores StoreProvider, log logrus.FieldLogger, m *metrics.Metrics) *Guard {
	return &Guard{stores: stores, log: log, metrics: m}
}

// IdentityFromContext はリクエストのコンテキストからIDを解決する。
// 識別子の形式を満たさないユーザーIDは解決できなかったものとして扱う。
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	userID := middleware.UserIDFromContext(ctx)
	if !validate.IsValidID(userID) {
		return Identity{}, false
	}
	return Identity{UserID: userID}, true
}

// RequireIdentity は認証済みであることのみを要求する。
func RequireIdentity(ctx context.Context) (Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, apperr.New(apperr.KindUnauthenticated, nil)
	}
	return identity, nil
}

// Check はリクエストのIDとロールから認可判断を算出する。
// IDを解決できない場合はストアを参照しない。
func (g *Guard) Check(ctx context.Context) (Decision, *store.Store) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return g.record(Decision{Reason: ReasonUnauthenticated}), nil
	}

	st, err := g.stores.Get(ctx)
	if err != nil {
		return g.record(Decision{Identity: &identity, Reason: ReasonCheckFailed, Err: err}), nil
	}

	role, found, err := st.LookupRole(ctx, identity.UserID)
	if err != nil {
		return g.record(Decision{Identity: &identity, Reason: ReasonCheckFailed, Err: err}), nil
	}
	if !found || role != RoleAdmin {
		return g.record(Decision{Identity: &identity, Reason: ReasonForbidden}), nil
	}

	return g.record(Decision{Allowed: true, Identity: &identity}), st
}

// RequireAdmin は管理者であることを要求する。
// 失敗した場合はKindUnauthenticated・KindForbidden・KindAdminCheckFailedの
// いずれかのアプリケーションエラーを返す。
func (g *Guard) RequireAdmin(ctx context.Context) (*Admin, error) {
	decision, st := g.Check(ctx)
	switch decision.Reason {
	case ReasonNone:
		return &Admin{
			Identity: *decision.Identity,
			Store:    st.As(decision.Identity.UserID),
		}, nil
	case ReasonUnauthenticated:
		return nil, apperr.New(apperr.KindUnauthenticated, nil)
	case ReasonForbidden:
		return nil, apperr.New(apperr.KindForbidden, nil)
	case ReasonCheckFailed:
		return nil, apperr.New(apperr.KindAdminCheckFailed, decision.Err)
	}
	return nil, apperr.New(apperr.KindInternal, errors.New("未知の認可判断です"))
}

// record は判断結果をメトリクスとログに記録する。
func (g *Guard) record(d Decision) Decision {
	result := "allowed"
	if !d.Allowed {
		result = string(d.Reason)
	}
	if g.metrics != nil {
		g.metrics.GuardDecisions.WithLabelValues(result).Inc()
	}

	if d.Reason == ReasonCheckFailed && g.log != nil {
		fields := logrus.Fields{
			"store_error_code": store.ErrorCode(d.Err),
		}
		if d.Identity != nil {
			fields["user_id"] = d.Identity.UserID
		}
		g.log.WithFields(fields).WithError(d.Err).Error("管理者ロールの確認に失敗")
	}
	return d
}
