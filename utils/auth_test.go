package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func authRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"branchId": c.GetString("branchId")})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := authRouter("secret")
	valid := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "u1", "branchId": "b1"})
	legacy := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "u1", "salonId": "s1"})
	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u1"})
	expired := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()})

	tests := []struct {
		name   string
		header string
		code   int
		branch string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"bearer prefix", "Bearer " + valid, http.StatusOK, "b1"},
		{"lowercase prefix", "bearer " + valid, http.StatusOK, "b1"},
		{"raw token", valid, http.StatusOK, "b1"},
		{"salon claim fallback", "Bearer " + legacy, http.StatusOK, "s1"},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.code, w.Code)
			continue
		}
		if tt.branch != "" && w.Body.String() != `{"branchId":"`+tt.branch+`"}` {
			t.Errorf("%s: unexpected body %s", tt.name, w.Body.String())
		}
	}
}

func TestAuthMiddleware_RejectsNoneAlgorithm(t *testing.T) {
	r := authRouter("secret")
	token := sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "u1", "branchId": "b1"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an unsigned token, got %d", w.Code)
	}
}

func TestRateLimiter_FailsOpenWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	rl := NewRedisRateLimiter(rdb, 0, 0)
	if rl.limit != 120 || rl.window != time.Minute {
		t.Errorf("unexpected defaults %d %s", rl.limit, rl.window)
	}

	r := gin.New()
	r.GET("/book", rl.Middleware(zerolog.Nop()), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/book", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("expected the request through when redis is down, got %d", w.Code)
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+923001234567", true},
		{"+1 (555) 000-1111", true},
		{"03001234567", false},
		{"+0123", false},
		{"phone", false},
	}
	for _, tt := range tests {
		if got := ValidatePhone(tt.phone); got != tt.want {
			t.Errorf("ValidatePhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}
