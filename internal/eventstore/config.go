package eventstore

import "os"

// Config はイベントストアサービスの設定。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string
	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string
}

// LoadConfig は環境変数からConfigを読み込む。
func LoadConfig() Config {
	return Config{
		Port:         getEnvOr("PORT", "8084"),
		DatabasePath: getEnvOr("DATABASE_PATH", "/data/eventstore.db"),
	}
}

func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
