package authconfig

import (
	"unicode"

	"github.com/quatton/libra/pkg/lapi/apierr"
	"golang.org/x/crypto/bcrypt"
)

// ValidatePassword requires at least 8 characters mixing upper and lower
// case letters, a digit and a symbol.
func ValidatePassword(pw string) error {
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if len(pw) < 8 || !upper || !lower || !digit || !symbol {
		return apierr.Invalid("password",
			"must be at least 8 characters and contain an uppercase letter, a lowercase letter, a digit and a symbol")
	}
	return nil
}

func (s *AuthService) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
