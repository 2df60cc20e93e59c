// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// セッショントークンからのID解決、構造化リクエストログ、パニックリカバリ、
// CORS設定を含む。認可の判断はここでは行わず、ハンドラ側のガードに任せる。
package middleware
