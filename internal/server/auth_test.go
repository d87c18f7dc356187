package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestAuthRoundTrip(t *testing.T) {
	token, err := IssueToken("s3cret", "user-1", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	sub, err := NewAuth("s3cret").SubjectFromHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("SubjectFromHeader: %v", err)
	}
	if sub != "user-1" {
		t.Fatalf("expected user-1, got %s", sub)
	}
}

func TestAuthRejects(t *testing.T) {
	auth := NewAuth("s3cret")
	good, _ := IssueToken("s3cret", "user-1", time.Hour)
	wrongKey, _ := IssueToken("other", "user-1", time.Hour)
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
	}).SignedString([]byte("s3cret"))
	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + good},
		{"no token", "Bearer "},
		{"wrong key", "Bearer " + wrongKey},
		{"expired", "Bearer " + expired},
		{"no exp", "Bearer " + noExp},
		{"no sub", "Bearer " + noSub},
		{"garbage", "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.SubjectFromHeader(tt.header); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestNewAuthEmptySecretDisables(t *testing.T) {
	if NewAuth("") != nil {
		t.Fatal("expected nil auth for empty secret")
	}
}

func TestIssueTokenValidates(t *testing.T) {
	if _, err := IssueToken("", "user", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := IssueToken("s", "", time.Hour); err == nil {
		t.Fatal("expected error for empty subject")
	}
}
