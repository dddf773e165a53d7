package db

import "time"

// TimeLayout はcreated_atカラムの保存形式。固定幅のため文字列の大小が時刻の前後と一致する。
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// Event はeventsテーブルの1行。
type Event struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Data          string
	Version       int64
	CreatedAt     time.Time
}
