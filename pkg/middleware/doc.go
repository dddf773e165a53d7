// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 認証サービスへの問い合わせによるBearerトークンの検証、パニックリカバリ、
// CORS設定を含む。トークン検証は署名鍵を必要とせず、RemoteValidatorの判定だけに依存する。
package middleware
