package user

import (
	"testing"

	"telebbs/internal/pkg/errs"
)

func TestValidateCredentials(t *testing.T) {
	cases := []struct {
		name     string
		username string
		password string
		code     int
	}{
		{"ok", "alice", "pw1", 0},
		{"short username", "al", "pw1", errs.ErrInvalidUsername},
		{"bad chars", "al ice", "pw1", errs.ErrInvalidUsername},
		{"short password", "alice", "pw", errs.ErrInvalidPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCredentials(tc.username, tc.password)
			if tc.code == 0 {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || err.Code != tc.code {
				t.Fatalf("expected code %d, got %v", tc.code, err)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("pw1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "pw1" {
		t.Fatalf("hash must not equal the password")
	}
	if !CheckPassword(hash, "pw1") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "pw2") {
		t.Fatalf("expected wrong password to fail")
	}
}
