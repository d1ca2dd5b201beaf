package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/skRookies2team/Backend-Relay/internal/httputil"
)

var testSecret = []byte("test-secret-that-is-at-least-32-bytes!")

func serve(t *testing.T, authHeader string) (*httptest.ResponseRecorder, *Principal) {
	t.Helper()
	var got *Principal
	handler := Middleware(NewGate(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/ai/generate", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	w.Header().Set("X-Request-ID", "test-req")
	handler.ServeHTTP(w, req)
	return w, got
}

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestMiddleware_ValidToken(t *testing.T) {
	token, err := IssueToken(testSecret, "writer-7", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	w, p := serve(t, "Bearer "+token)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if p == nil || p.ID != "writer-7" {
		t.Errorf("principal = %+v, want writer-7", p)
	}
}

func TestMiddleware_RejectionsAreIndistinguishable(t *testing.T) {
	expired := signed(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
		Subject:   "writer-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	noExpiry := signed(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
		Subject: "writer-7",
	})
	noSubject := signed(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	wrongKey := signed(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), jwt.RegisteredClaims{
		Subject:   "writer-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned := signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{
		Subject:   "writer-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"malformed", "Bearer not.a.jwt"},
		{"expired", "Bearer " + expired},
		{"no expiry", "Bearer " + noExpiry},
		{"no subject", "Bearer " + noSubject},
		{"wrong key", "Bearer " + wrongKey},
		{"alg none", "Bearer " + unsigned},
	}

	var first *httputil.ErrorEnvelope
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, p := serve(t, tt.header)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if p != nil {
				t.Fatal("handler should not be called")
			}

			var env httputil.ErrorEnvelope
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if first == nil {
				first = &env
				return
			}
			if env.Error != first.Error || env.Message != first.Message || env.Status != first.Status {
				t.Errorf("envelope %+v differs from %+v", env, *first)
			}
		})
	}
}

func TestGate_CopiesSecret(t *testing.T) {
	secret := append([]byte(nil), testSecret...)
	g := NewGate(secret)
	token, _ := IssueToken(testSecret, "writer-7", time.Hour)

	secret[0] ^= 0xff
	if _, err := g.Authenticate(token); err != nil {
		t.Errorf("gate should keep its own copy of the secret: %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30d", 30 * 24 * time.Hour},
		{"12h", 12 * time.Hour},
		{"90m", 90 * time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := ParseDuration(""); err == nil {
		t.Error("empty duration should fail")
	}
}
