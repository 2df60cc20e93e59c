package notification

import (
	"time"
)

// Scope は通知の対象範囲を表す。
type Scope string

const (
	// ScopeUser は単一ユーザー宛ての通知。
	ScopeUser Scope = "user"
	// ScopeBroadcast は全ユーザー宛ての通知。
	ScopeBroadcast Scope = "broadcast"
)

// Valid は既知の範囲かどうかを返す。
func (s Scope) Valid() bool {
	return s == ScopeUser || s == ScopeBroadcast
}

// Channel は通知の配信先を表す。
type Channel string

const (
	// ChannelInApp はアプリ内のみの通知。外部配信は行わない。
	ChannelInApp Channel = "in_app"
	// ChannelDiscordDM はDiscordのダイレクトメッセージで配信する通知。
	ChannelDiscordDM Channel = "discord_dm"
	// ChannelDiscordWebhook はDiscordのWebhookで配信する通知。
	ChannelDiscordWebhook Channel = "discord_webhook"
)

// Valid は既知のチャネルかどうかを返す。
func (c Channel) Valid() bool {
	switch c {
	case ChannelInApp, ChannelDiscordDM, ChannelDiscordWebhook:
		return true
	}
	return false
}

// DeliveryStatus は外部配信の状態を表す。
type DeliveryStatus string

const (
	// DeliverySkipped は外部配信が不要であることを表す。
	DeliverySkipped DeliveryStatus = "skipped"
	// DeliveryPending は外部配信を待っていることを表す。
	DeliveryPending DeliveryStatus = "pending"
	// DeliverySent は配信ワーカーが配信に成功したことを表す。
	DeliverySent DeliveryStatus = "sent"
	// DeliveryFailed は配信ワーカーが配信に失敗したことを表す。
	DeliveryFailed DeliveryStatus = "failed"
)

// InitialDeliveryStatus はチャネルから作成時の配信状態を決定する。
// in_appはskipped、それ以外はpendingになる。
func InitialDeliveryStatus(channel Channel) DeliveryStatus {
	if channel == ChannelInApp {
		return DeliverySkipped
	}
	return DeliveryPending
}

// Record は通知配信レコード。
type Record struct {
	// ID は通知の一意識別子。
	ID string `json:"id"`
	// Scope は通知の対象範囲。
	Scope Scope `json:"scope"`
	// UserID は通知先のユーザーID。broadcastの場合はnil。
	UserID *string `json:"user_id"`
	// Type は通知の分類。
	Type string `json:"type"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Body は通知の本文。
	Body string `json:"body"`
	// Payload は利用側のための追加情報。このパッケージでは解釈しない。
	Payload map[string]any `json:"payload"`
	// Channel は配信先。
	Channel Channel `json:"channel"`
	// DeliveryStatus は外部配信の状態。
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	// DeliveryAttempts は配信ワーカーによる試行回数。
	DeliveryAttempts int `json:"delivery_attempts"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
}

// CreateParams は通知作成のパラメータ。
type CreateParams struct {
	// UserID は通知先のユーザーID。scope=broadcastの場合は空にする。
	UserID string
	// Scope は通知の対象範囲。
	Scope Scope
	// Type は通知の分類。
	Type string
	// Title は通知のタイトル。
	Title string
	// Body は通知の本文。
	Body string
	// Payload は追加情報。nilの場合は空のオブジェクトとして保存する。
	Payload map[string]any
	// Channel は配信先。
	Channel Channel
}
