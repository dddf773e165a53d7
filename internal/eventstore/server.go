package eventstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	eventstoredb "github.com/nao1215/authgate/internal/eventstore/db"
	"github.com/nao1215/authgate/pkg/middleware"
	"github.com/nao1215/authgate/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Server はイベントストアサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries はeventsテーブルへのクエリ実行オブジェクト。
	queries *eventstoredb.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// now は現在時刻を返す。テストで差し替える。
	now func() time.Time
}

// appendEventRequest はイベント追記のリクエストボディ。
type appendEventRequest struct {
	AggregateID   string          `json:"aggregate_id" binding:"required"`
	AggregateType string          `json:"aggregate_type" binding:"required"`
	EventType     string          `json:"event_type" binding:"required"`
	Data          json.RawMessage `json:"data" binding:"required"`
}

// eventResponse はイベントのレスポンス表現。
type eventResponse struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Version       int64           `json:"version"`
	CreatedAt     string          `json:"created_at"`
}

// NewServer は新しいイベントストアサーバーを生成する。
func NewServer(cfg Config) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", cfg.DatabasePath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(context.Background(), sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery("EventStore"))
	router.Use(gin.Logger())

	s := &Server{
		router:  router,
		port:    cfg.Port,
		queries: eventstoredb.New(sqlDB),
		db:      sqlDB,
		now:     time.Now,
	}
	s.setupRoutes()

	return s, nil
}

// initSchema はマイグレーションを適用してeventsテーブルを作成する。
func initSchema(ctx context.Context, db *sql.DB) error {
	return migration.Run(ctx, db, migrationsFS, "migrations")
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		events := api.Group("/events")
		{
			// イベントの追記
			events.POST("", s.handleAppendEvent())
			// 全イベント取得
			events.GET("", s.handleGetAllEvents())
			// AggregateIDによるイベント取得
			events.GET("/aggregate/:aggregate_id", s.handleGetEventsByAggregateID())
			// AggregateIDの最新バージョン取得
			events.GET("/aggregate/:aggregate_id/version", s.handleGetLatestVersion())
			// イベントタイプによるイベント取得
			events.GET("/type/:event_type", s.handleGetEventsByType())
			// 日時指定によるイベント取得（クエリパラメータ: since）
			events.GET("/since", s.handleGetEventsSince())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "eventstore"})
	})
}

// handleAppendEvent はイベントの追記を処理するハンドラを返す。
func (s *Server) handleAppendEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req appendEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}

		row := eventstoredb.Event{
			ID:            uuid.New().String(),
			AggregateID:   req.AggregateID,
			AggregateType: req.AggregateType,
			EventType:     req.EventType,
			Data:          string(req.Data),
			CreatedAt:     s.now().UTC(),
		}

		version, err := s.queries.AppendEvent(c.Request.Context(), eventstoredb.AppendEventParams{
			ID:            row.ID,
			AggregateID:   row.AggregateID,
			AggregateType: row.AggregateType,
			EventType:     row.EventType,
			Data:          row.Data,
			CreatedAt:     row.CreatedAt,
		})
		if err != nil {
			log.Printf("[EventStore] イベントの追記に失敗: aggregate_id=%s, error=%v", req.AggregateID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "イベントの追記に失敗しました"})
			return
		}
		row.Version = version

		log.Printf("[EventStore] イベントを追記しました: type=%s, aggregate_id=%s, version=%d", row.EventType, row.AggregateID, version)
		c.JSON(http.StatusCreated, toEventResponse(row))
	}
}

// handleGetAllEvents は全イベントを記録順に返すハンドラを返す。
func (s *Server) handleGetAllEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := s.queries.ListEvents(c.Request.Context())
		s.respondEvents(c, rows, err)
	}
}

// handleGetEventsByAggregateID はAggregateIDによるイベント取得を処理するハンドラを返す。
func (s *Server) handleGetEventsByAggregateID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := s.queries.ListEventsByAggregateID(c.Request.Context(), c.Param("aggregate_id"))
		s.respondEvents(c, rows, err)
	}
}

// handleGetEventsByType はイベントタイプによるイベント取得を処理するハンドラを返す。
func (s *Server) handleGetEventsByType() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := s.queries.ListEventsByType(c.Request.Context(), c.Param("event_type"))
		s.respondEvents(c, rows, err)
	}
}

// handleGetEventsSince は日時指定によるイベント取得を処理するハンドラを返す。
// sinceはRFC3339形式で指定する。
func (s *Server) handleGetEventsSince() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("since")
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sinceパラメータが必要です"})
			return
		}
		since, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sinceはRFC3339形式で指定してください"})
			return
		}

		rows, err := s.queries.ListEventsSince(c.Request.Context(), since)
		s.respondEvents(c, rows, err)
	}
}

// handleGetLatestVersion はAggregateIDの最新バージョン取得を処理するハンドラを返す。
func (s *Server) handleGetLatestVersion() gin.HandlerFunc {
	return func(c *gin.Context) {
		aggregateID := c.Param("aggregate_id")
		version, err := s.queries.GetLatestVersion(c.Request.Context(), aggregateID)
		if err != nil {
			log.Printf("[EventStore] バージョンの取得に失敗: aggregate_id=%s, error=%v", aggregateID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "バージョンの取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"aggregate_id": aggregateID, "version": version})
	}
}

func (s *Server) respondEvents(c *gin.Context, rows []eventstoredb.Event, err error) {
	if err != nil {
		log.Printf("[EventStore] イベントの取得に失敗: %s, error=%v", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "イベントの取得に失敗しました"})
		return
	}
	c.JSON(http.StatusOK, toEventResponses(rows))
}

// toEventResponse はDBの行をレスポンス表現に変換する。
func toEventResponse(row eventstoredb.Event) eventResponse {
	return eventResponse{
		ID:            row.ID,
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		EventType:     row.EventType,
		Data:          json.RawMessage(row.Data),
		Version:       row.Version,
		CreatedAt:     row.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// toEventResponses は複数の行を変換する。空の場合もnilではなく空のスライスを返す。
func toEventResponses(rows []eventstoredb.Event) []eventResponse {
	responses := make([]eventResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, toEventResponse(row))
	}
	return responses
}
