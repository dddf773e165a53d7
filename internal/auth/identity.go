package auth

import "context"

// DefaultRole はロール未指定で登録されたユーザーに付与されるロール。
const DefaultRole = "ROLE_USER"

// Identity は登録済みユーザーの永続的な記録。
type Identity struct {
	// ID はユーザーの一意識別子（UUID）。
	ID string
	// Email はユーザーのメールアドレス。一意。
	Email string
	// PasswordHash はCredentialVerifierが生成したパスワードハッシュ。
	PasswordHash string
	// Role はユーザーのロール。
	Role string
}

// UserStore はIdentityの永続化を担当する。
type UserStore interface {
	// FindByEmail はメールアドレスでIdentityを検索する。
	// 見つからない場合はErrNotFoundを返す。
	FindByEmail(ctx context.Context, email string) (Identity, error)
	// Create はIdentityを保存する。
	// メールアドレスが重複している場合はErrDuplicateIdentityを返す。
	Create(ctx context.Context, identity Identity) (Identity, error)
}

// CredentialVerifier はパスワードのハッシュ化と照合を担当する。
type CredentialVerifier interface {
	// Hash は平文パスワードをハッシュ化する。
	Hash(password string) (string, error)
	// Verify は平文パスワードがハッシュと一致するかを返す。
	Verify(password, hash string) bool
}
