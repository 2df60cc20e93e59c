// Package dashboard はキャンペーン管理ダッシュボードのHTTP APIを提供する。
//
// キャラクター審査キュー、通知一覧、管理者による通知作成を扱う。
// 管理者向けのルートは全てハンドラ内で管理者ガードを通し、ガードの失敗は
// 未認証(401)・権限不足(403)・ロール確認の障害(500)に区別して返す。
// パスパラメータの識別子はストアに触れる前に検証する。
package dashboard
