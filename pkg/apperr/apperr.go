// Package apperr はHTTP境界まで伝播するアプリケーションエラーを提供する。
//
// エラーの種類はKindで閉じた集合として表現し、ハンドラ境界で
// HTTPステータスとエラーコードに網羅的に変換する。内部の詳細
// （ストアのエラーコードやメッセージ）はレスポンスに含めない。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind はアプリケーションエラーの種類を表す。
type Kind int

const (
	// KindInternal は分類できない内部エラーを表す。
	KindInternal Kind = iota
	// KindUnauthenticated はリクエストから認証済みのIDを解決できないことを表す。
	KindUnauthenticated
	// KindForbidden は認証済みだが権限が不足していることを表す。
	KindForbidden
	// KindAdminCheckFailed は管理者ロールの確認処理自体が失敗したことを表す。
	KindAdminCheckFailed
	// KindInvalidID は識別子の形式が不正であることを表す。
	KindInvalidID
	// KindInvalidInput はリクエストボディが不正であることを表す。
	KindInvalidInput
	// KindNotFound は該当する行が存在しないことを表す。
	KindNotFound
	// KindFetchFailed は一覧取得クエリがエラーを返したことを表す。
	KindFetchFailed
	// KindAlreadyExists は一意制約違反を表す。
	KindAlreadyExists
	// KindReferenceMissing は外部キー制約違反を表す。
	KindReferenceMissing
	// KindNotAuthorized はストア側で権限違反が発生したことを表す。
	KindNotAuthorized
)

// String はKindの名前を返す。ログ出力に使用する。
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindAdminCheckFailed:
		return "admin_check_failed"
	case KindInvalidID:
		return "invalid_id"
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindFetchFailed:
		return "fetch_failed"
	case KindAlreadyExists:
		return "already_exists"
	case KindReferenceMissing:
		return "reference_missing"
	case KindNotAuthorized:
		return "not_authorized"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error はKindを持つアプリケーションエラー。
type Error struct {
	// Kind はエラーの種類。
	Kind Kind
	// Resource はFetchFailedの対象リソース名（例: "notifications"）。
	Resource string
	// Message は利用者に提示してよいメッセージ。空の場合は返さない。
	Message string
	// Err は原因となったエラー。レスポンスには含めない。
	Err error
}

// New は指定した種類のエラーを生成する。
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// FetchFailed は一覧取得失敗を表すエラーを生成する。
func FetchFailed(resource string, err error) *Error {
	return &Error{Kind: KindFetchFailed, Resource: resource, Err: err}
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Resource != "" {
		msg += "(" + e.Resource + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap は原因エラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// Code はレスポンスボディに含めるエラーコードを返す。
func (e *Error) Code() string {
	switch e.Kind {
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindAdminCheckFailed, KindInternal:
		return "INTERNAL_SERVER_ERROR"
	case KindInvalidID:
		return "INVALID_ID"
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindFetchFailed:
		if e.Resource == "" {
			return "FAILED_TO_FETCH"
		}
		return "FAILED_TO_FETCH_" + strings.ToUpper(e.Resource)
	case KindAlreadyExists:
		return "ALREADY_EXISTS"
	case KindReferenceMissing:
		return "REFERENCE_MISSING"
	case KindNotAuthorized:
		return "NOT_AUTHORIZED"
	}
	return "INTERNAL_SERVER_ERROR"
}

// HTTPStatus はエラーの種類に対応するHTTPステータスコードを返す。
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden, KindNotAuthorized:
		return http.StatusForbidden
	case KindInvalidID, KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	case KindReferenceMissing:
		return http.StatusUnprocessableEntity
	case KindAdminCheckFailed, KindFetchFailed, KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// As はerrからアプリケーションエラーを取り出す。
// アプリケーションエラーでない場合はKindInternalでラップして返す。
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(KindInternal, err)
}

// IsKind はerrが指定した種類のアプリケーションエラーかどうかを返す。
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
