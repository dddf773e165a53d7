package auth

import (
	"context"
	"errors"
	"fmt"
)

// CredentialGate はユーザー登録時の一意性確認とログイン時の資格情報検証を行う。
type CredentialGate struct {
	store    UserStore
	verifier CredentialVerifier
}

// NewCredentialGate は新しいCredentialGateを生成する。
func NewCredentialGate(store UserStore, verifier CredentialVerifier) *CredentialGate {
	return &CredentialGate{store: store, verifier: verifier}
}

// Register はメールアドレスの一意性を確認してからパスワードをハッシュ化し、Identityを保存する。
// 一意性確認とハッシュ化の間に同じメールアドレスで登録された場合も、
// UserStoreの一意制約によりErrDuplicateIdentityになる。
func (g *CredentialGate) Register(ctx context.Context, email, password, role string) (Identity, error) {
	_, err := g.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return Identity{}, ErrDuplicateIdentity
	case !errors.Is(err, ErrNotFound):
		return Identity{}, err
	}

	hash, err := g.verifier.Hash(password)
	if err != nil {
		return Identity{}, err
	}

	if role == "" {
		role = DefaultRole
	}

	identity, err := g.store.Create(ctx, Identity{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return Identity{}, err
	}
	return identity, nil
}

// Authenticate はメールアドレスとパスワードを検証し、一致したIdentityを返す。
// 未登録の場合はErrNotFound、パスワード不一致の場合はErrInvalidCredentialsを返す。
func (g *CredentialGate) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	identity, err := g.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}

	if !g.verifier.Verify(password, identity.PasswordHash) {
		return Identity{}, ErrInvalidCredentials
	}
	return identity, nil
}
