package utils

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/callsim/callsim-backend/internal/types"
)

func ParseInputString(s string) string {
	return strings.TrimSpace(s)
}

func NormalizeProfileFields(profile *types.Profile) {
	profile.Email = strings.ToLower(ParseInputString(profile.Email))
	profile.Password = ParseInputString(profile.Password)
	profile.Username = ParseInputString(profile.Username)
}

func ValidateRegistration(profile *types.Profile) error {
	if profile == nil {
		return fmt.Errorf("No profile given, cannot proceed with registration")
	}
	if profile.Email == "" {
		return fmt.Errorf("An email is required to register")
	}
	if profile.Password == "" {
		return fmt.Errorf("A password is required to register")
	}
	if profile.Username == "" {
		return fmt.Errorf("A username is required to register")
	}
	return nil
}

func HashPassword(profile *types.Profile) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(profile.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("Failed to hash password")
	}
	profile.Password = string(hashed)
	return nil
}

func CheckPassword(hashed, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)); err != nil {
		return fmt.Errorf("Invalid password")
	}
	return nil
}
