package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nao1215/authgate/pkg/httpclient"
	"github.com/nao1215/authgate/pkg/middleware"
)

// HTTPValidator は認証サービスの検証エンドポイントを呼び出すRemoteValidator。
// 1つのHTTPクライアントを全リクエストで共有する。
type HTTPValidator struct {
	client *httpclient.Client
}

var _ middleware.RemoteValidator = (*HTTPValidator)(nil)

// NewHTTPValidator は新しいHTTPValidatorを生成する。
// baseURLには"http://auth:8081/api/auth"のように/validateの手前までを指定する。
// 200以外の応答は2xxであっても検証失敗として扱う。
func NewHTTPValidator(baseURL string, opts ...httpclient.Option) *HTTPValidator {
	opts = append([]httpclient.Option{httpclient.WithExpectStatus(http.StatusOK)}, opts...)
	return &HTTPValidator{client: httpclient.New(baseURL, opts...)}
}

// Validate はGET /validate?token=...を呼び出し、応答の真偽値を返す。
// 通信エラーや200以外の応答、真偽値として解釈できない応答は
// middleware.ErrUpstreamUnavailableでラップして返す。
func (v *HTTPValidator) Validate(ctx context.Context, token string) (bool, error) {
	var valid bool
	if err := v.client.GetJSON(ctx, "/validate?token="+url.QueryEscape(token), &valid); err != nil {
		return false, fmt.Errorf("%w: %w", middleware.ErrUpstreamUnavailable, err)
	}
	return valid, nil
}
