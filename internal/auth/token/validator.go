package token

import (
	"fmt"
	"time"
)

// Validator はトークンの署名と有効期限を検証する。
type Validator struct {
	codec *Codec
	now   func() time.Time
}

// NewValidator は新しいValidatorを生成する。
func NewValidator(codec *Codec, opts ...Option) *Validator {
	o := applyOptions(opts)
	return &Validator{codec: codec, now: o.now}
}

// Validate はトークンをデコードし、現在時刻が有効期限より前であることを確認する。
// 時刻のずれは許容しない。
func (v *Validator) Validate(tokenString string) (Claims, error) {
	claims, err := v.codec.Decode(tokenString)
	if err != nil {
		return Claims{}, err
	}

	if !v.now().Before(claims.ExpiresAt) {
		return Claims{}, fmt.Errorf("%w: exp=%s", ErrExpired, claims.ExpiresAt.Format(time.RFC3339))
	}
	return claims, nil
}

// IsValid はトークンが現在有効かどうかを返す。
// 不正・未署名・期限切れのいずれでもfalseを返し、エラーの詳細は外部に出さない。
func (v *Validator) IsValid(tokenString string) bool {
	_, err := v.Validate(tokenString)
	return err == nil
}
