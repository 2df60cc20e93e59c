package store

import (
	"errors"
	"strconv"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nao1215/campaign/pkg/apperr"
)

// 利用者に提示するメッセージ。ストアのエラーコードは含めない。
const (
	msgAlreadyExists    = "already exists"
	msgReferenceMissing = "referenced entity missing"
	msgNotAuthorized    = "not authorized"
	msgGenericFailure   = "failed to save record"
)

// Postgresのエラーコード（SQLSTATE）。
const (
	pqUniqueViolation       pq.ErrorCode = "23505"
	pqForeignKeyViolation   pq.ErrorCode = "23503"
	pqInsufficientPrivilege pq.ErrorCode = "42501"
)

// violation はストアのエラーを制約違反の種類に分類した結果。
type violation int

const (
	violationOther violation = iota
	violationUnique
	violationForeignKey
	violationPermission
)

// classify はPostgres・SQLiteのエラーを制約違反の種類に分類する。
func classify(err error) violation {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return violationUnique
		case pqForeignKeyViolation:
			return violationForeignKey
		case pqInsufficientPrivilege:
			return violationPermission
		}
		return violationOther
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return violationUnique
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return violationForeignKey
		case sqlite3.SQLITE_AUTH, sqlite3.SQLITE_PERM, sqlite3.SQLITE_READONLY:
			return violationPermission
		}
	}
	return violationOther
}

// ErrorCode はログ出力用にストアのエラーコードを返す。
// Postgresの場合はSQLSTATE、SQLiteの場合は拡張リザルトコードを返す。
// 判別できない場合は空文字列を返す。
func ErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return "sqlite:" + strconv.Itoa(liteErr.Code())
	}
	return ""
}

// TranslateWriteError は書き込み時のストアのエラーを利用者向けのエラーに変換する。
// 一意制約違反・外部キー違反・権限違反はそれぞれ固有の種類に、それ以外は内部エラーになる。
func TranslateWriteError(err error) *apperr.Error {
	switch classify(err) {
	case violationUnique:
		return &apperr.Error{Kind: apperr.KindAlreadyExists, Message: msgAlreadyExists, Err: err}
	case violationForeignKey:
		return &apperr.Error{Kind: apperr.KindReferenceMissing, Message: msgReferenceMissing, Err: err}
	case violationPermission:
		return &apperr.Error{Kind: apperr.KindNotAuthorized, Message: msgNotAuthorized, Err: err}
	default:
		return &apperr.Error{Kind: apperr.KindInternal, Message: msgGenericFailure, Err: err}
	}
}
