package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/nao1215/authgate/pkg/httpclient"
)

// ErrPublishFailure はイベントの送信に失敗したことを表す。
// 送信はベストエフォートであり、呼び出し元はこのエラーをログに残して処理を続ける。
var ErrPublishFailure = errors.New("イベントの送信に失敗")

// Publisher はドメインイベントを外部に送信する。
// 送信は1回だけ試行し、リトライは行わない。
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

// appendEventRequest はEvent Storeへのイベント追記リクエスト。
type appendEventRequest struct {
	// AggregateID は対象エンティティの識別子。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType string `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType string `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
}

// appendEventResponse はEvent Storeが返す追記結果のうち、送信元に反映する項目。
type appendEventResponse struct {
	// Version はEvent Storeが採番したAggregate内の順序番号。
	Version int64 `json:"version"`
}

// HTTPPublisher はEvent StoreサービスにイベントをPOSTするPublisher。
type HTTPPublisher struct {
	client *httpclient.Client
}

// NewHTTPPublisher はEvent Store向けのクライアントからHTTPPublisherを生成する。
func NewHTTPPublisher(client *httpclient.Client) *HTTPPublisher {
	return &HTTPPublisher{client: client}
}

// Publish はイベントをEvent Storeに追記する。
// 追記に成功した場合、Event Storeが採番したバージョンをe.Versionに反映する。
func (p *HTTPPublisher) Publish(ctx context.Context, e *Event) error {
	req := appendEventRequest{
		AggregateID:   e.AggregateID,
		AggregateType: string(e.AggregateType),
		EventType:     string(e.EventType),
		Data:          e.Data,
	}
	var resp appendEventResponse
	if err := p.client.PostJSON(ctx, "/api/v1/events", req, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrPublishFailure, err)
	}
	if resp.Version > 0 {
		e.Version = resp.Version
	}
	return nil
}

// NopPublisher はイベントを送信せずに破棄するPublisher。
// イベント送信先が設定されていない環境で使用する。
type NopPublisher struct{}

// Publish はイベントをログに記録するだけで何も送信しない。
func (NopPublisher) Publish(_ context.Context, e *Event) error {
	log.Printf("[Event] 送信先が未設定のためイベントを破棄しました: type=%s, aggregate_id=%s", e.EventType, e.AggregateID)
	return nil
}
