package auth

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/nao1215/authgate/internal/auth/token"
	"github.com/nao1215/authgate/pkg/event"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用の署名鍵。
var testSecret = []byte("test-secret-key")

// newTestDB はスキーマ適用済みのインメモリSQLiteを生成する。
// :memory:は接続ごとに別のDBになるため、接続数を1に制限する。
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDB接続に失敗: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := initSchema(context.Background(), sqlDB); err != nil {
		t.Fatalf("スキーマ初期化に失敗: %v", err)
	}
	return sqlDB
}

// newTestGate はインメモリSQLiteと最小コストのbcryptを使うCredentialGateを生成する。
func newTestGate(t *testing.T) *CredentialGate {
	t.Helper()
	return NewCredentialGate(NewSQLiteUserStore(newTestDB(t)), NewBcryptVerifier(bcrypt.MinCost))
}

// newTestCodec はテスト用のトークンコーデックを生成する。
func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()

	codec, err := token.NewCodec(testSecret)
	if err != nil {
		t.Fatalf("コーデックの生成に失敗: %v", err)
	}
	return codec
}

// newTestServer はテスト用の認証サーバーを生成する。
func newTestServer(t *testing.T, publisher event.Publisher) *Server {
	t.Helper()

	codec := newTestCodec(t)
	gate := newTestGate(t)
	issuer := token.NewIssuer(codec)

	s := &Server{
		router:       gin.New(),
		port:         "0",
		gate:         gate,
		registration: NewRegistrationFlow(gate, issuer, publisher),
		issuer:       issuer,
		validator:    token.NewValidator(codec),
	}
	s.setupRoutes()

	return s
}

// recordingPublisher は送信されたイベントを記録するテスト用Publisher。
type recordingPublisher struct {
	mu     sync.Mutex
	events []*event.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) published() []*event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*event.Event(nil), p.events...)
}

// failingStore は常にエラーを返すUserStore。
type failingStore struct {
	err error
}

func (s failingStore) FindByEmail(context.Context, string) (Identity, error) {
	return Identity{}, s.err
}

func (s failingStore) Create(context.Context, Identity) (Identity, error) {
	return Identity{}, s.err
}

var errStoreDown = errors.New("store down")
