package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// testKeyID — идентификатор ключа для тестов.
const testKeyID = "test-key-rp"

const testIssuer = "https://idp.test"

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}

	data, _ := json.Marshal(jwks)
	return data
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestVerifier создаёт HandoffVerifier с mock JWKS.
func newTestVerifier(t *testing.T, key *rsa.PrivateKey) *HandoffVerifier {
	t.Helper()
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}
	return NewHandoffVerifierWithKeyfunc(kf, testIssuer, 0, testLogger())
}

// signToken подписывает claims ключом key.
func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

// validClaims возвращает claims корректного hand-off токена.
func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "u1",
		"role":  "receiver",
		"name":  "Rita Receiver",
		"email": "rita@example.com",
		"iss":   testIssuer,
		"exp":   jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
		"iat":   jwt.NewNumericDate(time.Now()),
	}
}

func TestHandoffVerifier_Verify(t *testing.T) {
	key := generateTestKey(t)
	v := newTestVerifier(t, key)

	user, err := v.Verify(context.Background(), signToken(t, key, validClaims()))
	if err != nil {
		t.Fatalf("Verify() вернул ошибку: %v", err)
	}
	if user.ID != "u1" || user.Role != "receiver" || user.Name != "Rita Receiver" || user.Email != "rita@example.com" {
		t.Errorf("пользователь = %+v", user)
	}
}

func TestHandoffVerifier_RoleFromGroups(t *testing.T) {
	key := generateTestKey(t)
	v := newTestVerifier(t, key)

	c := validClaims()
	delete(c, "role")
	c["groups"] = []string{"/staff", "/receivers"}

	user, err := v.Verify(context.Background(), signToken(t, key, c))
	if err != nil {
		t.Fatalf("Verify() вернул ошибку: %v", err)
	}
	if user.Role != "receiver" {
		t.Errorf("Role = %q, ожидается receiver", user.Role)
	}
}

func TestHandoffVerifier_Rejects(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	v := newTestVerifier(t, key)

	tests := []struct {
		name  string
		token func() string
	}{
		{"пустой токен", func() string { return "" }},
		{"мусор", func() string { return "not.a.jwt" }},
		{"просрочен", func() string {
			c := validClaims()
			c["exp"] = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return signToken(t, key, c)
		}},
		{"без exp", func() string {
			c := validClaims()
			delete(c, "exp")
			return signToken(t, key, c)
		}},
		{"чужой issuer", func() string {
			c := validClaims()
			c["iss"] = "https://evil.test"
			return signToken(t, key, c)
		}},
		{"без sub", func() string {
			c := validClaims()
			delete(c, "sub")
			return signToken(t, key, c)
		}},
		{"без role", func() string {
			c := validClaims()
			delete(c, "role")
			return signToken(t, key, c)
		}},
		{"группы без роли", func() string {
			c := validClaims()
			delete(c, "role")
			c["groups"] = []string{"/staff"}
			return signToken(t, key, c)
		}},
		{"чужой ключ", func() string { return signToken(t, otherKey, validClaims()) }},
		{"HS256", func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
			token.Header["kid"] = testKeyID
			signed, _ := token.SignedString([]byte("secret"))
			return signed
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token())
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ожидалась ErrInvalidToken, получено %v", err)
			}
		})
	}
}
