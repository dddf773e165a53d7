package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptVerifier はbcryptによるCredentialVerifierの実装。
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier は指定したコストのBcryptVerifierを生成する。
// 範囲外のコストはbcrypt.DefaultCostに置き換える。
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// Hash は平文パスワードをbcryptでハッシュ化する。
// bcryptは72バイトを超えるパスワードを扱えないため、その場合はErrInvalidPasswordを返す。
func (v *BcryptVerifier) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrInvalidPassword
	}
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	return string(hash), nil
}

// Verify は平文パスワードとハッシュを照合する。
func (v *BcryptVerifier) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
