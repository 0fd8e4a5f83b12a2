package domain

import "time"

type User struct {
	ID           string
	Email        string // unique
	PasswordHash string // argon2id encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
