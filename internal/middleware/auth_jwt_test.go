package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func authedRequest(t *testing.T, header string) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	var userID, locale string
	handler := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = UserIDFromContext(r.Context())
		locale = LocaleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/videos/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, userID, locale
}

func TestAuthJWTAcceptsSignedToken(t *testing.T) {
	token, err := SignToken(testSecret, "user-42", "id-ID", time.Hour)
	if err != nil {
		t.Fatalf("SignToken error: %v", err)
	}
	rec, userID, locale := authedRequest(t, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if userID != "user-42" {
		t.Fatalf("user id = %q", userID)
	}
	if locale != "id" {
		t.Fatalf("locale = %q, want id", locale)
	}
}

func TestAuthJWTRejects(t *testing.T) {
	expired, err := SignToken(testSecret, "user-42", "", -time.Minute)
	if err != nil {
		t.Fatalf("SignToken error: %v", err)
	}
	otherKey, err := SignToken("another-secret", "user-42", "", time.Hour)
	if err != nil {
		t.Fatalf("SignToken error: %v", err)
	}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-42"}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic " + otherKey,
		"empty token":    "Bearer ",
		"garbage":        "Bearer not.a.token",
		"expired":        "Bearer " + expired,
		"wrong key":      "Bearer " + otherKey,
		"no expiry":      "Bearer " + noExpiry,
		"no subject":     "Bearer " + noSubject,
		"alg none":       "Bearer " + unsigned,
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			rec, userID, _ := authedRequest(t, header)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if userID != "" {
				t.Fatalf("handler should not run")
			}
		})
	}
}

func TestSignTokenRequiresSubject(t *testing.T) {
	if _, err := SignToken(testSecret, " ", "", time.Hour); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}
