package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptVerifier(t *testing.T) {
	t.Parallel()

	v := NewBcryptVerifier(bcrypt.MinCost)

	hash, err := v.Hash("s3cret")
	if err != nil {
		t.Fatalf("ハッシュ化に失敗: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("平文がそのまま返された")
	}
	if !v.Verify("s3cret", hash) {
		t.Error("正しいパスワードが一致しない")
	}
	if v.Verify("wrong", hash) {
		t.Error("誤ったパスワードが一致した")
	}
	if v.Verify("s3cret", "not-a-hash") {
		t.Error("不正なハッシュで一致した")
	}

	t.Run("72バイトを超えるパスワードはErrInvalidPassword", func(t *testing.T) {
		t.Parallel()
		_, err := v.Hash(strings.Repeat("a", 73))
		if !errors.Is(err, ErrInvalidPassword) {
			t.Errorf("err = %v, want ErrInvalidPassword", err)
		}
	})

	t.Run("範囲外のコストはデフォルトになる", func(t *testing.T) {
		t.Parallel()
		if got := NewBcryptVerifier(0).cost; got != bcrypt.DefaultCost {
			t.Errorf("cost = %d, want %d", got, bcrypt.DefaultCost)
		}
	})
}

func TestCredentialGate_Register(t *testing.T) {
	t.Parallel()

	t.Run("ロール未指定の場合はROLE_USERになる", func(t *testing.T) {
		t.Parallel()
		gate := newTestGate(t)

		identity, err := gate.Register(context.Background(), "alice@example.com", "pw", "")
		if err != nil {
			t.Fatalf("登録に失敗: %v", err)
		}
		if identity.Role != DefaultRole {
			t.Errorf("Role = %q, want %q", identity.Role, DefaultRole)
		}
		if identity.PasswordHash == "pw" {
			t.Error("パスワードが平文で保存されている")
		}
	})

	t.Run("指定したロールが保存される", func(t *testing.T) {
		t.Parallel()
		gate := newTestGate(t)

		identity, err := gate.Register(context.Background(), "admin@example.com", "pw", "ROLE_ADMIN")
		if err != nil {
			t.Fatalf("登録に失敗: %v", err)
		}
		if identity.Role != "ROLE_ADMIN" {
			t.Errorf("Role = %q, want ROLE_ADMIN", identity.Role)
		}
	})

	t.Run("登録済みのメールアドレスはErrDuplicateIdentity", func(t *testing.T) {
		t.Parallel()
		gate := newTestGate(t)
		ctx := context.Background()

		if _, err := gate.Register(ctx, "dup@example.com", "pw", ""); err != nil {
			t.Fatalf("1件目の登録に失敗: %v", err)
		}
		_, err := gate.Register(ctx, "dup@example.com", "other", "")
		if !errors.Is(err, ErrDuplicateIdentity) {
			t.Errorf("err = %v, want ErrDuplicateIdentity", err)
		}
	})

	t.Run("ストアのエラーはそのまま返る", func(t *testing.T) {
		t.Parallel()
		gate := NewCredentialGate(failingStore{err: errStoreDown}, NewBcryptVerifier(bcrypt.MinCost))

		_, err := gate.Register(context.Background(), "a@example.com", "pw", "")
		if !errors.Is(err, errStoreDown) {
			t.Errorf("err = %v, want errStoreDown", err)
		}
	})
}

func TestCredentialGate_Authenticate(t *testing.T) {
	t.Parallel()

	gate := newTestGate(t)
	ctx := context.Background()
	registered, err := gate.Register(ctx, "alice@example.com", "correct", "")
	if err != nil {
		t.Fatalf("登録に失敗: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "正しい資格情報で認証できる", email: "alice@example.com", password: "correct"},
		{name: "パスワード不一致はErrInvalidCredentials", email: "alice@example.com", password: "wrong", wantErr: ErrInvalidCredentials},
		{name: "未登録のメールアドレスはErrNotFound", email: "nobody@example.com", password: "correct", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := gate.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("認証に失敗: %v", err)
			}
			if got.ID != registered.ID {
				t.Errorf("ID = %q, want %q", got.ID, registered.ID)
			}
		})
	}

	t.Run("ストアのエラーはラップして返る", func(t *testing.T) {
		t.Parallel()
		gate := NewCredentialGate(failingStore{err: errStoreDown}, NewBcryptVerifier(bcrypt.MinCost))

		_, err := gate.Authenticate(ctx, "a@example.com", "pw")
		if !errors.Is(err, errStoreDown) {
			t.Errorf("err = %v, want errStoreDown", err)
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("ストア障害が認証失敗として扱われた: %v", err)
		}
	})
}
