package utils

import (
	"testing"

	"backend/models"

	"github.com/lib/pq"
)

func TestHashAndValidatePassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatal("password stored in plain text")
	}
	if !ValidatePassword(hash, "s3cret!") {
		t.Fatal("correct password rejected")
	}
	if ValidatePassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestGenerateAndValidateJWT(t *testing.T) {
	user := &models.User{
		Email:       "tech@example.com",
		Role:        "user",
		Permissions: pq.StringArray{"manage_quotes"},
	}
	user.ID = 7

	tokenStr, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	token, err := ValidateJWT(tokenStr)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	claims, ok := TokenClaims(token)
	if !ok {
		t.Fatal("claims not map claims")
	}
	if claims["type"] != "access" {
		t.Fatalf("want access token got %v", claims["type"])
	}
	if uid, _ := claims["uid"].(float64); uint(uid) != 7 {
		t.Fatalf("uid claim: %v", claims["uid"])
	}
	if claims["email"] != "tech@example.com" {
		t.Fatalf("email claim: %v", claims["email"])
	}

	perms, ok := claims["permissions"].([]interface{})
	if !ok || len(perms) != 1 || perms[0] != "manage_quotes" {
		t.Fatalf("permissions claim: %v", claims["permissions"])
	}
}

func TestRefreshTokenType(t *testing.T) {
	user := &models.User{Email: "tech@example.com"}
	tokenStr, err := GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	token, err := ValidateJWT(tokenStr)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	claims, _ := TokenClaims(token)
	if claims["type"] != "refresh" {
		t.Fatalf("want refresh token got %v", claims["type"])
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	if _, err := ValidateJWT("not.a.token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}
