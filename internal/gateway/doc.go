// Package gateway はAPI Gatewayサービスの内部実装を提供する。
//
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線として機能する。
// /api/auth配下は認証なしで認証サービスに転送し、それ以外の設定済みルートは
// 認証サービスの検証エンドポイントに問い合わせて有効と判定されたリクエストだけを転送する。
// gatewayは署名鍵を持たず、トークンの中身も解釈しない。
package gateway
