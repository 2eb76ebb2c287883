package services

import (
	"strings"
	"testing"
)

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		password, err := GeneratePassword()
		if err != nil {
			t.Fatalf("GeneratePassword() error: %v", err)
		}

		if len(password) != PasswordLength {
			t.Errorf("password length = %d, expected %d", len(password), PasswordLength)
		}

		for _, c := range password {
			if !strings.ContainsRune(PasswordAlphabet, c) {
				t.Errorf("password contains %q, which is not in the alphabet", c)
			}
		}

		seen[password] = true
	}

	if len(seen) < 45 {
		t.Errorf("expected distinct passwords, got %d unique out of 50", len(seen))
	}
}

func TestPasswordAlphabetOmitsAmbiguousCharacters(t *testing.T) {
	for _, c := range "0O1lI" {
		if strings.ContainsRune(PasswordAlphabet, c) {
			t.Errorf("alphabet contains ambiguous character %q", c)
		}
	}
}
