package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims はトークンに埋め込まれるクレーム。
// タイムスタンプの精度は秒単位。
type Claims struct {
	// Subject は認証済みユーザーのメールアドレス。
	Subject string
	// Role はユーザーのロール（例: "ROLE_USER"）。
	Role string
	// IssuedAt は発行日時。
	IssuedAt time.Time
	// ExpiresAt は有効期限。
	ExpiresAt time.Time
}

// jwtClaims はJWTペイロードのJSON表現。
type jwtClaims struct {
	jwt.RegisteredClaims
	// Role はユーザーのロール。
	Role string `json:"role"`
}

// Codec は共有秘密鍵によるクレームの署名とデコードを行う。
// 有効期限の判定は行わない。期限の判定はValidatorの責務。
type Codec struct {
	secret []byte
}

// NewCodec は署名鍵からCodecを生成する。
// 鍵は起動時に一度だけ渡され、以降変更されない。
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Codec{secret: key}, nil
}

// Encode はクレームをHS256で署名したコンパクト形式のトークンに変換する。
func (c *Codec) Encode(claims Claims) (string, error) {
	payload := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		Role: claims.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Decode はトークンの署名と構造を検証し、クレームを取り出す。
// 有効期限切れのトークンでもエラーにはならない。
// 末尾の余りビットが0でないbase64は同じバイト列に復号されるため、厳密モードで拒否する。
func (c *Codec) Decode(tokenString string) (Claims, error) {
	payload := &jwtClaims{}
	_, err := jwt.ParseWithClaims(tokenString, payload, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Claims{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if payload.Subject == "" || payload.IssuedAt == nil || payload.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: sub, iat, exp のいずれかが欠けています", ErrMalformed)
	}

	return Claims{
		Subject:   payload.Subject,
		Role:      payload.Role,
		IssuedAt:  payload.IssuedAt.UTC(),
		ExpiresAt: payload.ExpiresAt.UTC(),
	}, nil
}
