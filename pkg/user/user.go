package user

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNotLoggedIn  = errors.New("session is not logged in")
)

// User is an account created on the first Google login. Guests never get one.
type User struct {
	Id int
	// Uid is the Google account subject id.
	Uid         string
	Email       string
	DisplayName string
	PhotoUrl    string
	CreatedAt   time.Time
	LastLoginAt time.Time
}
