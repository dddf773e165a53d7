package auth

import (
	"fmt"
	"os"
	"strconv"
)

// Config は認証サービスの設定。起動時に環境変数から一度だけ読み込む。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string
	// JWTSecret はトークン署名用の秘密鍵。必須。
	JWTSecret []byte
	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string
	// EventPublisher はイベント送信先の種類（http / redis / none）。
	EventPublisher string
	// EventStoreURL はEvent StoreサービスのURL。EventPublisherがhttpの場合に使用する。
	EventStoreURL string
	// RedisAddr はRedisのアドレス。EventPublisherがredisの場合に使用する。
	RedisAddr string
	// RedisStreamMaxLen はRedis Streamの最大長の目安。0の場合は制限しない。
	RedisStreamMaxLen int64
	// BcryptCost はbcryptのコスト。
	BcryptCost int
}

// LoadConfig は環境変数からConfigを読み込む。
// JWT_SECRETが未設定の場合はErrMissingSecretを返し、サービスは起動しない。
func LoadConfig() (Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, ErrMissingSecret
	}

	cost, err := strconv.Atoi(getEnvOr("BCRYPT_COST", "10"))
	if err != nil {
		return Config{}, fmt.Errorf("BCRYPT_COSTの解析に失敗: %w", err)
	}

	maxLen, err := strconv.ParseInt(getEnvOr("REDIS_STREAM_MAXLEN", "10000"), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("REDIS_STREAM_MAXLENの解析に失敗: %w", err)
	}

	return Config{
		Port:              getEnvOr("PORT", "8081"),
		JWTSecret:         []byte(secret),
		DatabasePath:      getEnvOr("DATABASE_PATH", "/data/auth.db"),
		EventPublisher:    getEnvOr("EVENT_PUBLISHER", "http"),
		EventStoreURL:     getEnvOr("EVENTSTORE_URL", "http://localhost:8084"),
		RedisAddr:         getEnvOr("REDIS_ADDR", "localhost:6379"),
		RedisStreamMaxLen: maxLen,
		BcryptCost:        cost,
	}, nil
}

// getEnvOr は環境変数の値を返す。未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
