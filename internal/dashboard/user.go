package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/campaign/internal/authz"
	"github.com/nao1215/campaign/internal/notification"
	"github.com/nao1215/campaign/pkg/apperr"
	"github.com/nao1215/campaign/pkg/middleware"
)

// handleListMyNotifications は認証済みユーザー宛ての通知の最新20件を新しい順に返すハンドラ。
func (s *Server) handleListMyNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := authz.RequireIdentity(c.Request.Context())
		if err != nil {
			apperr.Respond(c, s.log, err)
			return
		}

		st, err := s.stores.Get(c.Request.Context())
		if err != nil {
			apperr.Respond(c, s.log, apperr.FetchFailed("notifications", err))
			return
		}

		records, err := notification.NewRepository(st).ListForUser(c.Request.Context(), identity.UserID, notification.UserListLimit)
		if err != nil {
			apperr.Respond(c, s.log, apperr.FetchFailed("notifications", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": records})
	}
}

// meResponse は認証済みユーザーの情報。
type meResponse struct {
	// UserID はユーザーID。
	UserID string `json:"user_id"`
	// Role はロール。プロフィールが存在しない場合は空。
	Role string `json:"role"`
	// IsAdmin は管理者かどうか。
	IsAdmin bool `json:"is_admin"`
}

// handleMe は認証済みユーザーのIDとロールを返すハンドラ。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := authz.RequireIdentity(c.Request.Context())
		if err != nil {
			apperr.Respond(c, s.log, err)
			return
		}

		st, err := s.stores.Get(c.Request.Context())
		if err != nil {
			apperr.Respond(c, s.log, apperr.New(apperr.KindInternal, err))
			return
		}

		role, _, err := st.LookupRole(c.Request.Context(), identity.UserID)
		if err != nil {
			apperr.Respond(c, s.log, apperr.New(apperr.KindInternal, err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": meResponse{
			UserID:  identity.UserID,
			Role:    role,
			IsAdmin: role == authz.RoleAdmin,
		}})
	}
}

// devTokenRequest は開発用トークン発行リクエストのJSON構造。
type devTokenRequest struct {
	// UserID はトークンを発行するユーザーID。
	UserID string `json:"user_id" binding:"required,resource_id"`
	// Role はプロフィールに設定するロール。省略時はplayer。
	Role string `json:"role" binding:"omitempty,oneof=admin player"`
	// DisplayName は表示名。
	DisplayName string `json:"display_name" binding:"max=100"`
}

// handleDevToken は開発用のプロフィールを作成してセッショントークンを発行するハンドラ。
// DEV_TOKENSが有効な場合のみ登録される。
func (s *Server) handleDevToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req devTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, s.log, &apperr.Error{Kind: apperr.KindInvalidInput, Message: err.Error(), Err: err})
			return
		}
		if req.Role == "" {
			req.Role = "player"
		}

		st, err := s.stores.Get(c.Request.Context())
		if err != nil {
			apperr.Respond(c, s.log, apperr.New(apperr.KindInternal, err))
			return
		}
		if err := st.UpsertProfile(c.Request.Context(), req.UserID, req.Role, req.DisplayName); err != nil {
			apperr.Respond(c, s.log, apperr.New(apperr.KindInternal, err))
			return
		}

		token, err := middleware.GenerateToken(s.jwtSecret, req.UserID)
		if err != nil {
			apperr.Respond(c, s.log, apperr.New(apperr.KindInternal, err))
			return
		}

		c.SetCookie(middleware.SessionCookieName, token, 24*60*60, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{
			"token":   token,
			"user_id": req.UserID,
		})
	}
}
