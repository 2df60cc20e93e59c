// Package notification は通知配信レコードの作成と一覧取得を提供する。
//
// 通知はアプリ内表示用のレコードとして1行だけ保存し、Discordへの配信が
// 必要なチャネルは配信状態をpendingとして作成する。配信状態と試行回数は
// 作成後、外部の配信ワーカーのみが更新する。このパッケージは作成後の
// レコードを更新・削除しない。
package notification
