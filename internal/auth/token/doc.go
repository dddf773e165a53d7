// Package token は認証サービスが発行・検証するHS256署名付きトークンを扱う。
//
// Codec がクレームの署名とデコードを、Issuer がトークンの発行を、
// Validator が署名と有効期限の検証を担当する。署名鍵は認証サービスだけが保持し、
// gatewayはこのパッケージに依存しない。
package token
