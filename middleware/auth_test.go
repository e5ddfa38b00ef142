package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/config"
	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("0123456789abcdef0123", time.Hour)
	require.NoError(t, err)
	return tokens
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id": c.GetUint("user_id"),
		"role":    c.GetString("role"),
	})
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)
	router := gin.New()
	router.GET("/me", AuthMiddleware(tokens, "token"), whoami)

	valid, _, err := tokens.Generate(auth.Claims{UserID: 7, BusinessID: 1, Role: "owner"}, time.Now())
	require.NoError(t, err)
	expired, _, err := tokens.Generate(auth.Claims{UserID: 7}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized, "MISSING_CREDENTIALS"},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusOK, `"user_id":7`},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: valid}) }, http.StatusOK, `"role":"owner"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		c.Set("role", c.Query("role"))
		c.Next()
	}, RoleMiddleware("owner", "manager"), whoami)

	for role, status := range map[string]int{"owner": 200, "manager": 200, "cashier": 403, "": 403} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?role="+role, nil))
		assert.Equal(t, status, w.Code, role)
	}
}

func TestActiveUserMiddleware(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Type: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	defer db.Close()

	live := models.User{Email: "live@example.com", Password: "x", Role: models.RoleCashier, BusinessID: 3, BranchID: 4}
	require.NoError(t, db.Create(&live).Error)
	inactive := models.User{Email: "off@example.com", Password: "x", Role: models.RoleOwner, BusinessID: 3}
	require.NoError(t, db.Create(&inactive).Error)
	require.NoError(t, db.Model(&inactive).Update("active", false).Error)

	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		// claims as issued before the account changed
		id, _ := strconv.ParseUint(c.Query("id"), 10, 64)
		c.Set("user_id", uint(id))
		c.Set("role", models.RoleOwner)
		c.Set("business_id", uint(9))
		c.Next()
	}, ActiveUserMiddleware(db), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"role":        c.GetString("role"),
			"business_id": c.GetUint("business_id"),
			"branch_id":   c.GetUint("branch_id"),
		})
	})

	get := func(id uint) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/x?id=%d", id), nil))
		return w
	}

	w := get(live.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"cashier","business_id":3,"branch_id":4}`, w.Body.String())

	w = get(inactive.ID)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "USER_INACTIVE")

	w = get(999)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "USER_NOT_FOUND")
}

func TestLoopbackOnly(t *testing.T) {
	router := gin.New()
	router.GET("/x", LoopbackOnly(), whoami)

	for addr, status := range map[string]int{
		"127.0.0.1:5000": http.StatusOK,
		"[::1]:5000":     http.StatusOK,
		"192.0.2.1:5000": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, addr)
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.GET("/x", RequestID(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Body.String(), 36)
}
