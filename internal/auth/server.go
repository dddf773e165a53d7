package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nao1215/authgate/internal/auth/token"
	"github.com/nao1215/authgate/pkg/event"
	"github.com/nao1215/authgate/pkg/httpclient"
	"github.com/nao1215/authgate/pkg/middleware"
)

// Server は認証サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
	// gate はログイン時の資格情報検証を担当する。
	gate *CredentialGate
	// registration はユーザー登録フローを担当する。
	registration *RegistrationFlow
	// issuer はログイン成功時のトークン発行を担当する。
	issuer TokenIssuer
	// validator はトークン検証を担当する。
	validator *token.Validator
}

// registerRequest はユーザー登録のリクエストボディ。
type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// loginRequest はログインのリクエストボディ。
type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// NewServer は設定から依存関係を組み立てて新しい認証サーバーを生成する。
func NewServer(cfg Config) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", cfg.DatabasePath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(context.Background(), sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("トークンコーデックの生成に失敗: %w", err)
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		return nil, err
	}

	gate := NewCredentialGate(NewSQLiteUserStore(sqlDB), NewBcryptVerifier(cfg.BcryptCost))
	issuer := token.NewIssuer(codec)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:       router,
		port:         cfg.Port,
		db:           sqlDB,
		gate:         gate,
		registration: NewRegistrationFlow(gate, issuer, publisher),
		issuer:       issuer,
		validator:    token.NewValidator(codec),
	}
	s.setupRoutes()

	return s, nil
}

// newPublisher は設定に応じたイベント送信先を生成する。
func newPublisher(cfg Config) (event.Publisher, error) {
	switch cfg.EventPublisher {
	case "http":
		client := httpclient.New(cfg.EventStoreURL, httpclient.WithTimeout(5*time.Second))
		return event.NewHTTPPublisher(client), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return event.NewRedisPublisher(rdb, cfg.RedisStreamMaxLen), nil
	case "none", "":
		return event.NopPublisher{}, nil
	default:
		return nil, fmt.Errorf("未対応のEVENT_PUBLISHERです: %s", cfg.EventPublisher)
	}
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/auth")
	{
		api.POST("/register", s.handleRegister())
		api.POST("/login", s.handleLogin())
		api.GET("/validate", s.handleValidate())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "auth"})
	})
}

// handleRegister はユーザーを登録してトークンを返すハンドラを返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}

		tok, identity, err := s.registration.Register(c.Request.Context(), req.Email, req.Password, req.Role)
		switch {
		case errors.Is(err, ErrDuplicateIdentity):
			c.JSON(http.StatusConflict, gin.H{"error": ErrDuplicateIdentity.Error()})
			return
		case errors.Is(err, ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidPassword.Error()})
			return
		case err != nil:
			log.Printf("[Auth] ユーザー登録に失敗: error=%v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの登録に失敗しました"})
			return
		}

		log.Printf("[Auth] ユーザーを登録しました: id=%s, role=%s", identity.ID, identity.Role)
		c.String(http.StatusOK, tok)
	}
}

// handleLogin は資格情報を検証してトークンを返すハンドラを返す。
// 未登録とパスワード不一致はクライアントに同じ応答を返し、区別はログにのみ残す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}

		identity, err := s.gate.Authenticate(c.Request.Context(), req.Email, req.Password)
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidCredentials):
			log.Printf("[Auth] ログインに失敗: reason=%v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		case err != nil:
			log.Printf("[Auth] ログイン処理でエラー: error=%v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログイン処理に失敗しました"})
			return
		}

		tok, err := s.issuer.Issue(identity.Email, identity.Role)
		if err != nil {
			log.Printf("[Auth] トークンの発行に失敗: id=%s, error=%v", identity.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークンの発行に失敗しました"})
			return
		}

		c.String(http.StatusOK, tok)
	}
}

// handleValidate はトークンの有効性を真偽値で返すハンドラを返す。
// 検証に失敗した理由は返さず、常に200で応答する。
func (s *Server) handleValidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		valid := s.validator.IsValid(c.Query("token"))
		c.JSON(http.StatusOK, valid)
	}
}
