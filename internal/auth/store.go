package auth

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	authdb "github.com/nao1215/authgate/internal/auth/db"
	"github.com/nao1215/authgate/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// initSchema はマイグレーションを適用してusersテーブルを作成する。
func initSchema(ctx context.Context, db *sql.DB) error {
	if err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}

// SQLiteUserStore はSQLiteを使用したUserStoreの実装。
// メールアドレスの一意性はUNIQUEインデックスで保証する。
type SQLiteUserStore struct {
	queries *authdb.Queries
}

// NewSQLiteUserStore は新しいSQLiteUserStoreを生成する。
func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{queries: authdb.New(db)}
}

// FindByEmail はメールアドレスでIdentityを検索する。
func (s *SQLiteUserStore) FindByEmail(ctx context.Context, email string) (Identity, error) {
	user, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}

	return Identity{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
	}, nil
}

// Create はIdentityを保存する。IDが空の場合はUUIDを採番する。
func (s *SQLiteUserStore) Create(ctx context.Context, identity Identity) (Identity, error) {
	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}

	err := s.queries.CreateUser(ctx, authdb.CreateUserParams{
		ID:           identity.ID,
		Email:        identity.Email,
		PasswordHash: identity.PasswordHash,
		Role:         identity.Role,
	})
	if isUniqueViolation(err) {
		return Identity{}, ErrDuplicateIdentity
	}
	if err != nil {
		return Identity{}, fmt.Errorf("ユーザーの保存に失敗: %w", err)
	}
	return identity, nil
}

// isUniqueViolation はエラーがUNIQUE制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}
