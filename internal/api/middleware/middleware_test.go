package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"course-planner/config"
	"course-planner/pkg/errcode"
	"course-planner/pkg/jwt"
	"course-planner/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: time.Minute,
	})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ── JWTAuth / RoleAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newJWT()
	token, err := mgr.GenerateAccessToken("user-1", jwt.RoleUser)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", JWTAuth(mgr), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   int
	}{
		{"MissingHeader", "", 401, errcode.NoUserToken},
		{"NotBearer", "Token " + token, 401, errcode.WrongUserToken},
		{"Garbage", "Bearer not-a-jwt", 401, errcode.WrongUserToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode(t, w).Code)
		})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func TestRoleAuth_RejectsNonAdmin(t *testing.T) {
	mgr := newJWT()
	r := gin.New()
	r.POST("/admin", JWTAuth(mgr), RoleAuth(jwt.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	userToken, _ := mgr.GenerateAccessToken("user-1", jwt.RoleUser)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, errcode.NoAdminPrivilege, decode(t, w).Code)

	adminToken, _ := mgr.GenerateAccessToken("ops", jwt.RoleAdmin)
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

// ── RateLimit ──

type failingLimiter struct{ calls int }

func (f *failingLimiter) CheckRateLimit(context.Context, string, int, time.Duration) (bool, error) {
	f.calls++
	return false, errors.New("redis down")
}

type denyLimiter struct{}

func (denyLimiter) CheckRateLimit(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

func hit(r *gin.Engine) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	return w.Code
}

func TestRateLimit_LocalFallback(t *testing.T) {
	limiter := &failingLimiter{}
	r := gin.New()
	r.GET("/ping", RateLimit(limiter, 2, time.Hour, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusTooManyRequests, hit(r), "本地令牌桶耗尽后应拒绝")
	assert.Equal(t, 3, limiter.calls, "每次请求都应先尝试 Redis")
}

func TestRateLimit_NilLimiterUsesLocal(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimit(nil, 1, time.Hour, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusTooManyRequests, hit(r))
}

func TestRateLimit_RedisDenies(t *testing.T) {
	r := gin.New()
	r.GET("/ping", RateLimit(denyLimiter{}, 100, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, errcode.TooManyRequests, decode(t, w).Code)
}

// ── BodyLimit / RequestID ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.POST("/echo", BodyLimit(8), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/echo", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, errcode.RequestTooLarge, decode(t, w).Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/echo", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/rid", RequestID(), func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/rid", nil)
	req.Header.Set("X-Request-ID", "trace-1")
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-1", w.Body.String())
	assert.Equal(t, "trace-1", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/rid", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 65))
	r.ServeHTTP(w, req)
	assert.Len(t, w.Body.String(), 36, "过长的外部 ID 应被替换为 UUID")
}
