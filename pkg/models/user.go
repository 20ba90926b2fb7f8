package models

import (
	"time"

	"github.com/angelmondragon/teahouse-backend/pkg/enums"
)

// User is a registered account. PasswordHash is an encoded Argon2id
// string and never leaves the server.
type User struct {
	Email        string          `json:"email" validate:"required,email"`
	Name         string          `json:"name" validate:"required"`
	Role         enums.ActorRole `json:"role" validate:"required"`
	PasswordHash string          `json:"password_hash,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
