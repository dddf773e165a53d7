// Package eventstore はイベントストアサービスの内部実装を提供する。
//
// 認証サービスが送信するuser.registeredなどのドメインイベントを
// 追記のみ（append-only）で永続化し、後続のサービスが読み出せるようにする。
//
// 主な機能:
//   - イベントの追記（Aggregateごとにバージョンを自動採番）
//   - AggregateIDによるイベント取得
//   - イベントタイプによるイベント取得
//   - 日時指定によるイベント取得
package eventstore
