package security

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

var fastParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPasswordWithParams("correct horse", fastParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ok, err := VerifyPassword("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("wrong", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("x", []byte("plain")); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("secret", TokenInput{
		OperatorID: "op1",
		SessionID:  "s1",
		DeviceID:   "d1",
		Role:       "admin",
	}, time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.OperatorID != "op1" || claims.SessionID != "s1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAccessTokenRejected(t *testing.T) {
	token, _ := GenerateAccessToken("secret", TokenInput{OperatorID: "op1"}, time.Minute)
	if _, err := ParseAccessToken(token, "other"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	expired, _ := GenerateAccessToken("secret", TokenInput{OperatorID: "op1"}, -time.Minute)
	if _, err := ParseAccessToken(expired, "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestRefreshTokenHash(t *testing.T) {
	token, hash, err := GenerateRefreshToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.Equal(hash, HashRefreshToken(token)) {
		t.Fatal("stored hash does not match token")
	}
}
