// 認証サービスのエントリポイント。
// ユーザー登録、ログイン、トークン検証を担当する。
// トークンの署名鍵を保持する唯一のサービスであり、JWT_SECRETが未設定の場合は起動しない。
package main

import (
	"log"

	"github.com/nao1215/authgate/internal/auth"
)

func main() {
	cfg, err := auth.LoadConfig()
	if err != nil {
		log.Fatalf("認証サービスの設定読み込みに失敗: %v", err)
	}

	server, err := auth.NewServer(cfg)
	if err != nil {
		log.Fatalf("認証サーバーの初期化に失敗: %v", err)
	}

	log.Printf("認証サービスを起動します: :%s (event_publisher=%s)", cfg.Port, cfg.EventPublisher)
	if err := server.Run(); err != nil {
		log.Fatalf("認証サービスの起動に失敗: %v", err)
	}
}
