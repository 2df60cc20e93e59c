package dashboard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/campaign/internal/character"
	"github.com/nao1215/campaign/internal/notification"
	"github.com/nao1215/campaign/pkg/apperr"
	"github.com/nao1215/campaign/pkg/validate"
)

// pathID はパスパラメータの識別子を検証して返す。
// 不正な場合はストアに触れる前に400 INVALID_IDを返す。
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !validate.IsValidID(id) {
		apperr.Respond(c, nil, apperr.New(apperr.KindInvalidID, nil))
		return "", false
	}
	return id, true
}

// respondGuardCollapsed はガードの失敗を未認証(401)とそれ以外(403)の2通りに丸めて返す。
// 審査キューはロール確認の障害も403として返す。
func (s *Server) respondGuardCollapsed(c *gin.Context, err error) {
	if apperr.IsKind(err, apperr.KindUnauthenticated) {
		apperr.Respond(c, s.log, err)
		return
	}
	apperr.Respond(c, s.log, apperr.New(apperr.KindForbidden, err))
}

// handleCharacterQueue は審査待ちのキャラクターを登録の古い順に返すハンドラ。
func (s *Server) handleCharacterQueue() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, err := s.guard.RequireAdmin(c.Request.Context())
		if err != nil {
			s.respondGuardCollapsed(c, err)
			return
		}

		characters, err := character.NewRepository(admin.Store.Store).ListPending(c.Request.Context())
		if err != nil {
			apperr.Respond(c, s.log, apperr.FetchFailed("characters", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": characters})
	}
}

// handleGetCharacter は指定されたキャラクターを返すハンドラ。
func (s *Server) handleGetCharacter() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		admin, err := s.guard.RequireAdmin(c.Request.Context())
		if err != nil {
			apperr.Respond(c, s.log, err)
			return
		}

		ch, err := character.NewRepository(admin.Store.Store).Get(c.Request.Context(), id)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				apperr.Respond(c, s.log, err)
				return
			}
			apperr.Respond(c, s.log, apperr.New(apperr.KindInternal, err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": ch})
	}
}

// reviewAction は審査操作の種類。
type reviewAction int

const (
	reviewApprove reviewAction = iota
	reviewReject
)

// msgReasonRequired は理由の無い差し戻しに返すメッセージ。
const msgReasonRequired = "reason is required to reject a character"

// reviewRequest は審査リクエストのJSON構造。ボディは省略できる。
type reviewRequest struct {
	// Channel は所有者への通知の配信先。省略時はin_app。
	Channel string `json:"channel" binding:"omitempty,oneof=in_app discord_dm discord_webhook"`
	// Reason は差し戻し理由。差し戻し時は必須。
	Reason string `json:"reason" binding:"max=1000"`
}

// reviewResponse は審査結果のレスポンス。
type reviewResponse struct {
	// Character は審査後のキャラクター。
	Character *character.Character `json:"character"`
	// Notification は所有者に作成した通知。作成に失敗した場合はnil。
	Notification *notification.Record `json:"notification"`
}

// handleReviewCharacter はキャラクターを承認または差し戻し、所有者に通知を作成するハンドラ。
func (s *Server) handleReviewCharacter(action reviewAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		admin, err := s.guard.RequireAdmin(c.Request.Context())
		if err != nil {
			apperr.Respond(c, s.log, err)
			return
		}

		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			apperr.Respond(c, s.log, &apperr.Error{Kind: apperr.KindInvalidInput, Message: err.Error(), Err: err})
			return
		}
		if action == reviewReject && strings.TrimSpace(req.Reason) == "" {
			apperr.Respond(c, s.log, &apperr.Error{Kind: apperr.KindInvalidInput, Message: msgReasonRequired})
			return
		}
		channel := notification.ChannelInApp
		if req.Channel != "" {
			channel = notification.Channel(req.Channel)
		}

		params := character.ReviewParams{ID: id, ReviewedAt: time.Now().UTC()}
		if action == reviewApprove {
			params.Status = character.StatusApproved
		} else {
			params.Status = character.StatusRejected
			params.Reason = req.Reason
		}

		ch, err := character.NewRepository(admin.Store.Store).Review(c.Request.Context(), admin.Store, params)
		if err != nil {
			apperr.Respond(c, s.log, err)
			return
		}

		rec, err := s.producer.Create(c.Request.Context(), admin.Store.Store, reviewNotification(ch, channel))
		if err != nil {
			// 審査結果は確定済みのため、通知の作成失敗はログに残してレスポンスは成功とする
			s.log.WithFields(logrus.Fields{
				"character_id": ch.ID,
				"reviewer_id":  admin.Identity.UserID,
			}).WithError(err).Warn("審査通知の作成に失敗")
		}

		c.JSON(http.StatusOK, gin.H{"data": reviewResponse{Character: ch, Notification: rec}})
	}
}

// reviewNotification は審査結果を所有者に知らせる通知のパラメータを組み立てる。
func reviewNotification(ch *character.Character, channel notification.Channel) notification.CreateParams {
	params := notification.CreateParams{
		UserID:  ch.UserID,
		Scope:   notification.ScopeUser,
		Channel: channel,
		Payload: map[string]any{
			"character_id": ch.ID,
			"status":       string(ch.Status),
		},
	}
	if ch.Status == character.StatusApproved {
		params.Type = "character_approved"
		params.Title = "Character approved"
		params.Body = fmt.Sprintf("%s has been approved.", ch.Name)
		return params
	}

	params.Type = "character_rejected"
	params.Title = "Character needs changes"
	params.Body = fmt.Sprintf("%s was sent back for changes.", ch.Name)
	if ch.RejectionReason != nil {
		params.Payload["reason"] = *ch.RejectionReason
	}
	return params
}

// handleListAllNotifications は全通知の最新100件を新しい順に返すハンドラ。
func (s *Server) handleListAllNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, err := s.guard.RequireAdmin(c.Request.Context())
		if err != nil {
			apperr.Respond(c, s.log, err)
			return
		}

		records, err := notification.NewRepository(admin.Store.Store).ListRecent(c.Request.Context(), notification.AdminListLimit)
		if err != nil {
			apperr.Respond(c, s.log, apperr.FetchFailed("notifications", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": records})
	}
}

// createNotificationRequest は通知作成リクエストのJSON構造。
type createNotificationRequest struct {
	// Scope は通知の対象範囲（user / broadcast）。
	Scope string `json:"scope" binding:"required,oneof=user broadcast"`
	// UserID は通知先のユーザーID。scope=userの場合は必須。
	UserID string `json:"user_id" binding:"omitempty,resource_id"`
	// Type は通知の分類。
	Type string `json:"type" binding:"required,max=64"`
	// Title は通知のタイトル。
	Title string `json:"title" binding:"required,max=200"`
	// Body は通知の本文。
	Body string `json:"body" binding:"max=4000"`
	// Payload は追加情報。
	Payload map[string]any `json:"payload"`
	// Channel は配信先。
	Channel string `json:"channel" binding:"required,oneof=in_app discord_dm discord_webhook"`
}

// handleCreateNotification は管理者が通知（broadcastまたはユーザー宛て）を作成するハンドラ。
func (s *Server) handleCreateNotification() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, err := s.guard.RequireAdmin(c.Request.Context())
		if err != nil {
			apperr.Respond(c, s.log, err)
			return
		}

		var req createNotificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, s.log, &apperr.Error{Kind: apperr.KindInvalidInput, Message: err.Error(), Err: err})
			return
		}

		rec, err := s.producer.Create(c.Request.Context(), admin.Store.Store, notification.CreateParams{
			UserID:  req.UserID,
			Scope:   notification.Scope(req.Scope),
			Type:    req.Type,
			Title:   req.Title,
			Body:    req.Body,
			Payload: req.Payload,
			Channel: notification.Channel(req.Channel),
		})
		if err != nil {
			apperr.Respond(c, s.log, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"data": rec})
	}
}
