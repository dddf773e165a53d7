// Package httpclient はサービス間のHTTP通信を行うクライアントを提供する。
//
// gatewayから認証サービスへのトークン検証呼び出しや、
// 認証サービスからEvent Storeへのイベント送信など、
// サービス間の通信パターンを統一する。
package httpclient
