// Package middleware はキャンペーンAPIで使用するGin共通ミドルウェアを提供する。
//
// 運用者トークンのJWT検証、パニックリカバリ、管理ダッシュボード向けの
// CORS設定を含む。
package middleware
