package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrUpstreamUnavailable は検証サービスから判定を得られなかったことを表す。
// 通信エラー、タイムアウト、想定外のステータスや応答をこのエラーでラップする。
var ErrUpstreamUnavailable = errors.New("認証サービスから検証結果を取得できません")

// bearerPrefix はAuthorizationヘッダーのスキーム。大文字小文字を区別する。
const bearerPrefix = "Bearer "

// RemoteValidator はトークンの有効性を外部の認証サービスに問い合わせる。
// 署名鍵を持たないgatewayは、この問い合わせ結果だけで通過可否を判断する。
type RemoteValidator interface {
	Validate(ctx context.Context, token string) (bool, error)
}

// Verdict は1回の問い合わせ結果。
type Verdict struct {
	// Valid は認証サービスが有効と判定したかどうか。
	Valid bool
	// Err は問い合わせ自体の失敗。nilでない場合Validは意味を持たない。
	Err error
}

// Decision はリクエストを通過させるかどうか。
type Decision int

const (
	// DecisionReject はリクエストを401で拒否する。
	DecisionReject Decision = iota
	// DecisionAdmit はリクエストを後続のハンドラに渡す。
	DecisionAdmit
)

func (d Decision) String() string {
	if d == DecisionAdmit {
		return "admit"
	}
	return "reject"
}

// Decide はVerdictから通過可否を決める。
// 問い合わせが成功し、かつ有効と判定された場合だけ通過させる。
func Decide(v Verdict) Decision {
	if v.Err == nil && v.Valid {
		return DecisionAdmit
	}
	return DecisionReject
}

// BearerToken はAuthorizationヘッダーの値からトークンを取り出す。
func BearerToken(header string) (string, bool) {
	tok, found := strings.CutPrefix(header, bearerPrefix)
	if !found || tok == "" {
		return "", false
	}
	return tok, true
}

// RemoteAuth は全リクエストのBearerトークンをRemoteValidatorで検証するGinミドルウェアを返す。
// ヘッダーがない、または形式が不正な場合は問い合わせをせずに401を返す。
// 問い合わせはリクエストのコンテキストにtimeoutを加えて行い、失敗した場合も401を返す。
// 通過したリクエストは一切変更せずに後続へ渡す。
func RemoteAuth(v RemoteValidator, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tok, ok := BearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		valid, err := v.Validate(ctx, tok)
		cancel()

		verdict := Verdict{Valid: valid, Err: err}
		if Decide(verdict) == DecisionReject {
			if verdict.Err != nil {
				log.Printf("[Gateway] トークン検証に失敗: %s %s: %v", c.Request.Method, c.Request.URL.Path, verdict.Err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Next()
	}
}
