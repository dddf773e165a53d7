package gateway

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/authgate/pkg/middleware"
)

// Server はAPI GatewayサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// authURL は/api/auth配下の転送先。
	authURL string
	// routes は認証必須のルート。
	routes []Route
	// auth は認証必須ルートに適用するミドルウェア。
	auth gin.HandlerFunc
	// client は転送に使用するHTTPクライアント。全リクエストで共有する。
	client *http.Client
}

// NewServer は設定から新しいGatewayサーバーを生成する。
func NewServer(cfg Config) (*Server, error) {
	if len(cfg.Routes) == 0 {
		log.Printf("[Gateway] 認証必須のルートが設定されていません")
	}

	validator := NewHTTPValidator(cfg.AuthValidateURL)

	router := gin.New()
	router.Use(middleware.Recovery("Gateway"))
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	s := &Server{
		router:  router,
		port:    cfg.Port,
		authURL: cfg.AuthURL,
		routes:  cfg.Routes,
		auth:    middleware.RemoteAuth(validator, cfg.ValidationTimeout),
		client:  newProxyClient(),
	}
	s.setupRoutes()

	return s, nil
}

// newProxyClient は転送用のHTTPクライアントを生成する。
// リダイレクトは追跡せず、3xx応答をそのまま呼び出し元に返す。
func newProxyClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証サービス（認証不要）
	s.router.Any(authPrefix+"/*path", s.handleProxy(s.authURL))

	// 認証必須のルート
	for _, r := range s.routes {
		group := s.router.Group(r.Prefix, s.auth)
		group.Any("/*path", s.handleProxy(r.Target))
		log.Printf("[Gateway] ルートを登録しました: %s -> %s", r.Prefix, r.Target)
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})
}

// handleProxy はリクエストをbaseURLに転送するハンドラを返す。
// パスとクエリ文字列は受け取ったものをそのまま使う。
func (s *Server) handleProxy(baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := baseURL + c.Request.URL.EscapedPath()
		if c.Request.URL.RawQuery != "" {
			target += "?" + c.Request.URL.RawQuery
		}
		s.doProxy(c, target)
	}
}

// doProxy はリクエストのメソッド、ヘッダー、ボディを変更せずに転送し、
// 応答のステータス、ヘッダー、ボディをそのまま返す。
func (s *Server) doProxy(c *gin.Context, url string) {
	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, url, c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "プロキシリクエストの作成に失敗しました"})
		return
	}
	req.Header = c.Request.Header.Clone()
	req.ContentLength = c.Request.ContentLength

	resp, err := s.client.Do(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "内部サービスとの通信に失敗しました"})
		log.Printf("[Gateway] プロキシエラー: url=%s, error=%v", url, err)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, v := range values {
			c.Writer.Header().Add(key, v)
		}
	}
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		log.Printf("[Gateway] レスポンスの転送に失敗: url=%s, error=%v", url, err)
	}
}
