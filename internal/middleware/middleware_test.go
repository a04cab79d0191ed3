package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/qbank/exam-platform/internal/model"
	"github.com/qbank/exam-platform/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAuth accepts tokens of the form "ok:<role>" and "expired".
type stubAuth struct {
	userID  uuid.UUID
	liveJTI string
}

func (s *stubAuth) ValidateToken(token string) (*service.Claims, error) {
	switch {
	case token == "expired":
		return nil, fmt.Errorf("parse token: %w", jwt.ErrTokenExpired)
	case strings.HasPrefix(token, "ok:"):
		role := model.Role(strings.TrimPrefix(token, "ok:"))
		return &service.Claims{
			RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"},
			UserID:           s.userID,
			Role:             role,
			Permissions:      role.Permissions(),
		}, nil
	}
	return nil, errors.New("bad token")
}

func (s *stubAuth) ValidateSession(_ context.Context, _ uuid.UUID, jti string) error {
	if jti != s.liveJTI {
		return service.ErrSessionInvalidated
	}
	return nil
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireJWT(t *testing.T) {
	auth := &stubAuth{userID: uuid.New(), liveJTI: "jti-1"}
	r := gin.New()
	r.GET("/me", RequireJWT(auth), CheckActiveSession(auth), func(c *gin.Context) {
		c.String(http.StatusOK, GetClaims(c).UserID.String())
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"no header", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"invalid", "Bearer nope", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"expired", "Bearer expired", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"valid", "Bearer ok:STUDENT", http.StatusOK, auth.userID.String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			if w.Code != tt.wantCode || !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("got %d %s, want %d containing %s", w.Code, w.Body.String(), tt.wantCode, tt.wantBody)
			}
		})
	}

	auth.liveJTI = "newer-login"
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer ok:STUDENT")
	w := serve(r, req)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "SESSION_INVALIDATED") {
		t.Errorf("stale session: %d %s", w.Code, w.Body.String())
	}
}

func TestRequireWSAuth(t *testing.T) {
	auth := &stubAuth{userID: uuid.New()}
	r := gin.New()
	r.GET("/ws", RequireWSAuth(auth), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/ws", nil)); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/ws?token=ok:STUDENT", nil)); w.Code != http.StatusNoContent {
		t.Errorf("valid token: %d", w.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	auth := &stubAuth{userID: uuid.New()}
	r := gin.New()
	r.POST("/grade", RequireJWT(auth), RequirePermission(model.PermissionExamsGrade), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/either", RequireJWT(auth), RequireAnyPermission(model.PermissionUsersWrite, model.PermissionStatsRead), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		method, path, role string
		want               int
	}{
		{http.MethodPost, "/grade", "STUDENT", http.StatusForbidden},
		{http.MethodPost, "/grade", "TEACHER", http.StatusNoContent},
		{http.MethodPost, "/grade", "ADMIN", http.StatusNoContent},
		{http.MethodGet, "/either", "STUDENT", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		req.Header.Set("Authorization", "Bearer ok:"+tt.role)
		if w := serve(r, req); w.Code != tt.want {
			t.Errorf("%s %s as %s = %d, want %d", tt.method, tt.path, tt.role, w.Code, tt.want)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(r, req).Code)
	}
	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}

	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	if w := serve(r, other); w.Code != http.StatusOK {
		t.Errorf("second client limited: %d", w.Code)
	}
}

func TestBrotli(t *testing.T) {
	long := strings.Repeat("question bank ", 200)
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 64, Skipper: SkipPaths("/metrics")}))
	r.GET("/long", func(c *gin.Context) {
		// Two writes: the second lands after compression has started.
		_, _ = c.Writer.WriteString(long[:100])
		_, _ = c.Writer.WriteString(long[100:])
	})
	r.GET("/short", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, long) })

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip, br")
		return serve(r, req)
	}

	w := get("/long")
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("long body not compressed")
	}
	body, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(body) != long {
		t.Errorf("round trip mismatch: got %d bytes, want %d", len(body), len(long))
	}

	w = get("/short")
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Errorf("short body = %q (%s)", w.Body.String(), w.Header().Get("Content-Encoding"))
	}

	w = get("/metrics")
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != long {
		t.Error("skipped path was compressed")
	}
}

func TestNoStoreAndSecureHeaders(t *testing.T) {
	r := gin.New()
	r.Use(NoStore(), SecureHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Cache-Control") != "no-store" || w.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("headers = %v", w.Header())
	}
}
