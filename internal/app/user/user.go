/*
Package user contains core data structures and logic related to user identity.

It defines the User entity stored by the repository, the registration policy for
usernames and passwords, and bcrypt-based password hashing.
*/
package user

import (
	"regexp"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"telebbs/internal/pkg/errs"
)

const (
	// MinPasswordLen and MaxPasswordLen bound password length in runes.
	MinPasswordLen = 3
	MaxPasswordLen = 50
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// User represents a registered participant.
type User struct {
	// ID is the store-assigned identifier; zero means "no user".
	ID int64 `json:"id"`

	// Username is unique and doubles as the display name.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash; never rendered.
	PasswordHash string `json:"-"`

	// LoggedIn is true while at least one session is authenticated as this user.
	LoggedIn bool `json:"loggedIn"`

	CreatedAt time.Time `json:"createdAt"`
}

// ValidateCredentials applies the registration policy.
func ValidateCredentials(username, password string) *errs.CustomError {
	if !usernameRegex.MatchString(username) {
		return errs.NewError(errs.ErrInvalidUsername)
	}

	passwordLen := utf8.RuneCountInString(password)
	if passwordLen < MinPasswordLen || passwordLen > MaxPasswordLen {
		return errs.NewError(errs.ErrInvalidPassword, MinPasswordLen, MaxPasswordLen)
	}

	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
