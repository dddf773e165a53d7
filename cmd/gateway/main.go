// API Gatewayサービスのエントリポイント。
// 認証サービスへの問い合わせによるトークン検証と、内部サービスへのリクエスト転送を担当する。
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線となる。
package main

import (
	"log"

	"github.com/nao1215/authgate/internal/gateway"
)

func main() {
	cfg, err := gateway.LoadConfig()
	if err != nil {
		log.Fatalf("Gatewayの設定読み込みに失敗: %v", err)
	}

	server, err := gateway.NewServer(cfg)
	if err != nil {
		log.Fatalf("Gatewayサーバーの初期化に失敗: %v", err)
	}

	log.Printf("Gatewayサービスを起動します: :%s (validate=%s, timeout=%s)", cfg.Port, cfg.AuthValidateURL, cfg.ValidationTimeout)
	if err := server.Run(); err != nil {
		log.Fatalf("Gatewayサービスの起動に失敗: %v", err)
	}
}
