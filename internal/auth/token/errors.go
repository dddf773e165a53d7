package token

import "errors"

var (
	// ErrMalformed はトークンの構造が不正でパースできないことを表す。
	ErrMalformed = errors.New("トークンの形式が不正です")
	// ErrSignatureInvalid はトークンの署名が一致しないことを表す。
	// 署名アルゴリズムがHS256以外の場合もこのエラーになる。
	ErrSignatureInvalid = errors.New("トークンの署名が不正です")
	// ErrExpired は署名は正しいが有効期限を過ぎていることを表す。
	ErrExpired = errors.New("トークンの有効期限が切れています")
	// ErrEmptySecret は署名鍵が空であることを表す。
	ErrEmptySecret = errors.New("署名鍵が設定されていません")
	// ErrEmptyClaim はsubjectまたはroleが空のままトークンを発行しようとしたことを表す。
	ErrEmptyClaim = errors.New("subjectとroleは必須です")
)
