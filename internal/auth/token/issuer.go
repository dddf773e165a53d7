package token

import (
	"time"
)

// Lifetime はトークンの有効期間。発行ポリシーとして固定されている。
const Lifetime = 30 * time.Minute

// Option はIssuerとValidatorの設定を変更する。
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock は現在時刻の取得関数を差し替える。テストで使用する。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Issuer は検証済みのユーザーに対してトークンを発行する。
// 署名鍵以外の状態を持たないため、並行に呼び出して問題ない。
type Issuer struct {
	codec *Codec
	now   func() time.Time
}

// NewIssuer は新しいIssuerを生成する。
func NewIssuer(codec *Codec, opts ...Option) *Issuer {
	o := applyOptions(opts)
	return &Issuer{codec: codec, now: o.now}
}

// Issue はsubjectとroleを埋め込んだトークンを発行する。
// 発行日時は現在時刻（秒単位に切り捨て）、有効期限はその30分後。
func (i *Issuer) Issue(subject, role string) (string, error) {
	if subject == "" || role == "" {
		return "", ErrEmptyClaim
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	return i.codec.Encode(Claims{
		Subject:   subject,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(Lifetime),
	})
}
