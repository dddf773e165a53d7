package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeUser はユーザー（Identity）エンティティを表す。
	AggregateTypeUser AggregateType = "User"
)

// Type はイベントの種類を表す。
// 値はそのままメッセージのトピック名（Redis Streamのキー）として使用する。
type Type string

const (
	// TypeUserRegistered はユーザー登録が完了したことを表す。
	TypeUserRegistered Type = "user.registered"
)

// Event はサービス外へ通知するドメインイベントの封筒。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// Version はAggregate内でのイベントの順序番号。
	Version int64 `json:"version"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// UserRegisteredData はuser.registeredイベントのデータ。
// Identityの射影であり、パスワードハッシュは含まない。
type UserRegisteredData struct {
	// ID は登録されたユーザーのID。
	ID string `json:"id"`
	// Email は登録されたメールアドレス。
	Email string `json:"email"`
	// Role はユーザーのロール。
	Role string `json:"role"`
}
