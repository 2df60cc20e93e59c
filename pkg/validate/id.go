// Package validate はリクエスト入力の検証関数を提供する。
package validate

import (
	"github.com/go-playground/validator/v10"
)

// maxIDLength は識別子の最大長。UUID（36文字）を許容する。
const maxIDLength = 36

// TagResourceID はgo-playground/validatorに登録する識別子検証タグ名。
const TagResourceID = "resource_id"

// IsValidID は識別子が1〜36文字の英数字・ハイフン・アンダースコアのみで
// 構成されているかどうかを返す。ストアの検索条件に埋め込む前に必ず通す。
func IsValidID(candidate string) bool {
	if len(candidate) == 0 || len(candidate) > maxIDLength {
		return false
	}
	for i := 0; i < len(candidate); i++ {
		ch := candidate[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_':
		default:
			return false
		}
	}
	return true
}

// Register はvalidatorにresource_idタグを登録する。
// ginのbinding.Validator.Engine()から取得したインスタンスに対して呼び出す。
func Register(v *validator.Validate) error {
	return v.RegisterValidation(TagResourceID, func(fl validator.FieldLevel) bool {
		return IsValidID(fl.Field().String())
	})
}
