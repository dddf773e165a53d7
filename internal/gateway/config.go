package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// authPrefix は認証なしで転送する認証サービスのパス。
const authPrefix = "/api/auth"

// Route は認証必須で転送するパスのプレフィックスと転送先。
type Route struct {
	// Prefix は"/api/orders"のようなパスのプレフィックス。
	Prefix string
	// Target は転送先サービスのベースURL。
	Target string
}

// Config はGatewayサービスの設定。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string
	// AuthURL は/api/auth配下の転送先。
	AuthURL string
	// AuthValidateURL は検証エンドポイントのベースURL。/validateを付けて呼び出す。
	AuthValidateURL string
	// ValidationTimeout は検証呼び出し1回あたりのタイムアウト。
	ValidationTimeout time.Duration
	// Routes は認証必須のルート。
	Routes []Route
	// FrontendURL はCORSで許可するオリジン。
	FrontendURL string
}

// LoadConfig は環境変数からConfigを読み込む。
func LoadConfig() (Config, error) {
	timeout, err := time.ParseDuration(getEnvOr("VALIDATION_TIMEOUT", "300ms"))
	if err != nil {
		return Config{}, fmt.Errorf("VALIDATION_TIMEOUTの解析に失敗: %w", err)
	}
	if timeout <= 0 {
		return Config{}, errors.New("VALIDATION_TIMEOUTは正の値である必要があります")
	}

	routes, err := ParseRoutes(getEnvOr("GATEWAY_ROUTES", "/api/orders=http://localhost:8082,/api/products=http://localhost:8083"))
	if err != nil {
		return Config{}, err
	}

	authURL := getEnvOr("AUTH_URL", "http://localhost:8081")
	return Config{
		Port:              getEnvOr("PORT", "8080"),
		AuthURL:           authURL,
		AuthValidateURL:   getEnvOr("AUTH_VALIDATE_URL", authURL+authPrefix),
		ValidationTimeout: timeout,
		Routes:            routes,
		FrontendURL:       getEnvOr("FRONTEND_URL", "http://localhost:3000"),
	}, nil
}

// ParseRoutes は"/api/orders=http://orders:8082,/api/products=http://products:8083"形式の
// 文字列をRouteの一覧に変換する。
// プレフィックス同士が重なる場合や/api/authと重なる場合はエラーを返す。
func ParseRoutes(s string) ([]Route, error) {
	var routes []Route
	for entry := range strings.SplitSeq(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		prefix, target, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("ルート定義が不正です: %q", entry)
		}
		prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
		target = strings.TrimRight(strings.TrimSpace(target), "/")

		if !strings.HasPrefix(prefix, "/") || strings.ContainsAny(prefix, ":*") {
			return nil, fmt.Errorf("ルートのプレフィックスが不正です: %q", prefix)
		}
		u, err := url.Parse(target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("ルートの転送先URLが不正です: %q", target)
		}

		routes = append(routes, Route{Prefix: prefix, Target: target})
	}

	all := append([]Route{{Prefix: authPrefix}}, routes...)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if overlaps(all[i].Prefix, all[j].Prefix) {
				return nil, fmt.Errorf("ルートのプレフィックスが重複しています: %q と %q", all[i].Prefix, all[j].Prefix)
			}
		}
	}
	return routes, nil
}

// overlaps は一方のプレフィックスがもう一方をパス単位で含むかどうかを返す。
func overlaps(a, b string) bool {
	return a == b || strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

// getEnvOr は環境変数の値を返す。未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
