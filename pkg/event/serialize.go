package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewUserRegistered はuser.registeredイベントを生成する。
// 登録はユーザーごとに最初のイベントのため、バージョンは1で初期化する。
// Event Storeに追記された場合は採番されたバージョンで上書きされる。
func NewUserRegistered(data UserRegisteredData) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("イベントデータのシリアライズに失敗: %w", err)
	}

	return &Event{
		ID:            uuid.New().String(),
		AggregateID:   data.ID,
		AggregateType: AggregateTypeUser,
		EventType:     TypeUserRegistered,
		Data:          jsonData,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// DecodeData はイベントのDataフィールドを指定された型にデシリアライズする。
func DecodeData[T any](e *Event) (*T, error) {
	var data T
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("イベントデータのデシリアライズに失敗: %w", err)
	}
	return &data, nil
}
