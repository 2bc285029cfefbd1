package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func invoke(mw echo.MiddlewareFunc, req *http.Request) (string, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var uid string
	h := mw(func(c echo.Context) error {
		uid = UserIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	return uid, h(c)
}

func TestIdentityMiddleware_ExtractsSubject(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-42"))

	uid, err := invoke(IdentityMiddleware(Config{SigningKey: testKey}), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "user-42" {
		t.Errorf("expected user-42, got %s", uid)
	}
}

func TestIdentityMiddleware_MissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := invoke(IdentityMiddleware(Config{SigningKey: testKey}), req)
	if err == nil {
		t.Fatal("expected error for missing authorization header")
	}
}

func TestIdentityMiddleware_BadSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-42"))

	_, err := invoke(IdentityMiddleware(Config{SigningKey: []byte("other-key")}), req)
	if err == nil {
		t.Fatal("expected error for bad signature")
	}
}

func TestDevIdentityMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	uid, err := invoke(DevIdentityMiddleware(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "dev-user" {
		t.Errorf("expected dev-user, got %s", uid)
	}
}
