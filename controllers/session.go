package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/middleware"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

// VerifyAuth reports who the token belongs to and their open cash session.
func VerifyAuth(c *gin.Context) {
	user, err := services.GetUser(database.DB, c.GetUint("user_id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User account no longer exists",
				"code":  "USER_NOT_FOUND",
			})
			return
		}
		opts.Logger.Error("auth verification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Could not verify account",
			"code":  "SERVER_ERROR",
		})
		return
	}

	resp := gin.H{
		"user_id":     user.ID,
		"email":       user.Email,
		"role":        user.Role,
		"business_id": user.BusinessID,
		"branch_id":   user.BranchID,
		"active":      user.Active,
		"session":     nil,
	}
	if exp, ok := c.Get("exp"); ok {
		resp["expires_in"] = int64(exp.(time.Time).Sub(now()).Seconds())
	}
	session, err := services.CurrentSession(database.DB, user.ID)
	switch {
	case err == nil:
		resp["session"] = session
	case !errors.Is(err, services.ErrNoOpenSession):
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Guard tells a front-end whether the visitor may stay on app and where to
// send them otherwise. It is public: a missing or bad token is itself an
// answer.
func Guard(c *gin.Context) {
	app := c.DefaultQuery("app", middleware.AppDashboard)
	if app != middleware.AppDashboard && app != middleware.AppStore {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown app " + app, "code": "INVALID_INPUT"})
		return
	}

	var userID uint
	if token := middleware.TokenFromRequest(c, opts.Auth.CookieName); token != "" {
		if claims, err := opts.Tokens.Validate(token); err == nil {
			userID = claims.UserID
		}
	}
	state, err := middleware.LoadGuardState(database.DB, app, userID, now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, middleware.ResolveGuard(state))
}
