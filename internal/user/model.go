package user

import (
	"errors"
	"time"

	"github.com/vasiliy-maslov/shop-service/internal/auth"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type User struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         auth.Role `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// SignupInput carries the already validated signup fields. Password is plain text.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     auth.Role
}

type LoginResult struct {
	Token string
	User  *User
}
