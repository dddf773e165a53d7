// Package auth は認証サービスの内部実装を提供する。
//
// ユーザー登録とログインによる資格情報の検証、トークンの発行、
// gatewayから呼び出されるトークン検証エンドポイントを担当する。
// 署名鍵を保持するのはこのサービスだけであり、gatewayは検証結果の真偽値のみを受け取る。
package auth
