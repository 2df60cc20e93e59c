package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookieName はブラウザのセッショントークンを保持するCookie名。
	SessionCookieName = "session"
	// tokenIssuer はセッショントークンの発行者。
	tokenIssuer = "campaign-dashboard"
	// tokenTTL はセッショントークンの有効期間。
	tokenTTL = 24 * time.Hour
	// contextKeyGinUserID はGinコンテキストにユーザーIDを格納するキー。
	contextKeyGinUserID = "user_id"
)

// SessionClaims はセッショントークンのクレーム（ペイロード）を表す。
type SessionClaims struct {
	jwt.RegisteredClaims
	// UserID はIDプロバイダーが発行したユーザーの一意識別子。
	UserID string `json:"user_id"`
}

// errNoToken はリクエストにセッショントークンが含まれないことを表す。
var errNoToken = errors.New("セッショントークンがありません")

// GenerateToken はユーザーIDからセッショントークンを生成する。
func GenerateToken(secret, userID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("セッショントークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseToken はセッショントークンを検証してユーザーIDを返す。
func ParseToken(secret, tokenString string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return "", fmt.Errorf("セッショントークンの検証に失敗: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", errors.New("セッショントークンが無効です")
	}
	return claims.UserID, nil
}

// tokenFromRequest はAuthorizationヘッダーまたはセッションCookieからトークンを取り出す。
// ヘッダーを優先する。
func tokenFromRequest(c *gin.Context) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			return "", errors.New("Bearer トークン形式が不正です")
		}
		return tokenString, nil
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", errNoToken
}

// Session はリクエストのセッションからIDを解決するGinミドルウェアを返す。
// 解決できた場合はGinコンテキストとリクエストのcontext.Contextの両方にユーザーIDを設定する。
// 解決できない場合もリクエストは中断せず、認可の判断は後段に任せる。
func Session(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			c.Next()
			return
		}

		userID, err := ParseToken(secret, tokenString)
		if err != nil {
			c.Next()
			return
		}

		c.Set(contextKeyGinUserID, userID)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// GetUserID はGinコンテキストからユーザーIDを取得する。
// Sessionミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get(contextKeyGinUserID)
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyUserID はcontext.ContextにユーザーIDを格納するためのキー。
const contextKeyUserID contextKey = "user_id"

// WithUserID はコンテキストにユーザーIDを設定する。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

// UserIDFromContext はコンテキストからユーザーIDを取得する。
// 設定されていない場合は空文字列を返す。
func UserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		return userID
	}
	return ""
}
