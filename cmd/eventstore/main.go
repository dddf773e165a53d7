// イベントストアサービスのエントリポイント。
// 認証サービスなどから送信されたドメインイベントを追記のみで永続化し、配信する。
package main

import (
	"log"

	"github.com/nao1215/authgate/internal/eventstore"
)

func main() {
	cfg := eventstore.LoadConfig()

	server, err := eventstore.NewServer(cfg)
	if err != nil {
		log.Fatalf("イベントストアサーバーの初期化に失敗: %v", err)
	}

	log.Printf("イベントストアサービスを起動します: :%s", cfg.Port)
	if err := server.Run(); err != nil {
		log.Fatalf("イベントストアサービスの起動に失敗: %v", err)
	}
}
