package db

// User はusersテーブルの1行。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
}
