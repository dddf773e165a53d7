package auth

import "errors"

var (
	// ErrDuplicateIdentity は同じメールアドレスのユーザーが既に存在することを表す。
	ErrDuplicateIdentity = errors.New("このメールアドレスは既に登録されています")
	// ErrNotFound はメールアドレスに一致するユーザーが存在しないことを表す。
	ErrNotFound = errors.New("ユーザーが見つかりません")
	// ErrInvalidCredentials はパスワードが一致しないことを表す。
	ErrInvalidCredentials = errors.New("パスワードが一致しません")
	// ErrInvalidPassword はパスワードがハッシュ化できない形式であることを表す。
	ErrInvalidPassword = errors.New("パスワードの形式が不正です")
	// ErrMissingSecret はJWT_SECRETが設定されていないことを表す。
	ErrMissingSecret = errors.New("JWT_SECRETが設定されていません")
)
