package utils

import (
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var BcryptCost = bcrypt.DefaultCost

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsValidEmail принимает только голый адрес, без имени ("Bob <bob@x.io>" не подходит).
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email, ".")
}

func IsValidUsername(username string) bool {
	return usernameRe.MatchString(username)
}
