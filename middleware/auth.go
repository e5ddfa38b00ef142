package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

// AuthMiddleware accepts a token from the cookie or an Authorization: Bearer
// header and puts the claims in the request context.
func AuthMiddleware(tokens *auth.TokenService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c, cookieName)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication token required",
				"code":  "MISSING_CREDENTIALS",
			})
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			code := "INVALID_TOKEN"
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code, msg = "TOKEN_EXPIRED", "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": code})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("business_id", claims.BusinessID)
		c.Set("branch_id", claims.BranchID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		if claims.ExpiresAt != nil {
			c.Set("exp", claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// ActiveUserMiddleware reloads the token's user and replaces role, business
// and branch with the stored values. Removed or deactivated accounts lose
// access before their token expires.
func ActiveUserMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := services.GetUser(db, c.GetUint("user_id"))
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Account no longer exists",
				"code":  "USER_NOT_FOUND",
			})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Could not verify account",
				"code":  "SERVER_ERROR",
			})
			return
		case !user.Active:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Account is inactive",
				"code":  "USER_INACTIVE",
			})
			return
		}

		c.Set("business_id", user.BusinessID)
		c.Set("branch_id", user.BranchID)
		c.Set("email", user.Email)
		c.Set("role", user.Role)
		c.Next()
	}
}

// TokenFromRequest returns the session token, preferring the cookie.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// RoleMiddleware lets the request through only for the given roles.
func RoleMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
			"code":  "FORBIDDEN",
		})
	}
}

// LoopbackOnly rejects clients that are not on this machine.
func LoopbackOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			host = c.Request.RemoteAddr
		}
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Local access only",
				"code":  "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}

// RequestID tags every request with an id, reusing X-Request-ID when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
