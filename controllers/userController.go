package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/middleware"
	"github.com/marko-code-lab/noiddea-demo-sub002/models"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

type Credentials struct {
	Email       string  `json:"email" binding:"required"`
	Password    string  `json:"password" binding:"required"`
	App         string  `json:"app"`
	OpeningCash float64 `json:"opening_cash"`
}

// issueToken signs a token for user and stores it in the session cookie.
func issueToken(c *gin.Context, user *models.User) (string, time.Time, error) {
	token, expiresAt, err := opts.Tokens.Generate(auth.Claims{
		UserID:     user.ID,
		BusinessID: user.BusinessID,
		BranchID:   user.BranchID,
		Email:      user.Email,
		Role:       user.Role,
	}, now())
	if err != nil {
		return "", time.Time{}, err
	}
	setTokenCookie(c, token, expiresAt)
	return token, expiresAt, nil
}

func setTokenCookie(c *gin.Context, token string, expiresAt time.Time) {
	sameSite := http.SameSiteLaxMode
	if opts.Auth.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	maxAge := int(time.Until(expiresAt).Seconds())
	if token == "" {
		maxAge = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     opts.Auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   opts.Auth.CookieSecure,
		HttpOnly: true,
		SameSite: sameSite,
	})
}

// Signup creates a business with its main branch and owner.
func Signup(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, business, err := services.RegisterOwner(database.DB, input)
	if err != nil {
		respondError(c, err)
		return
	}
	token, expiresAt, err := issueToken(c, user)
	if err != nil {
		respondError(c, err)
		return
	}

	opts.Logger.Info("business registered", zap.Uint("business_id", business.ID), zap.Uint("user_id", user.ID))
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Account created successfully",
		"user":       user,
		"business":   business,
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Login checks credentials and issues a token. Logging into the store, and
// any cashier login, opens a cash session or resumes the one already open.
func Login(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "code": "INVALID_INPUT"})
		return
	}
	if creds.App == "" {
		creds.App = middleware.AppDashboard
	}
	if creds.App != middleware.AppDashboard && creds.App != middleware.AppStore {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown app " + creds.App, "code": "INVALID_INPUT"})
		return
	}

	user, err := services.Authenticate(database.DB, creds.Email, creds.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"message": "Login successful", "user": user, "redirect": "/dashboard"}
	if creds.App == middleware.AppStore || user.Role == models.RoleCashier {
		caller := services.Actor{UserID: user.ID, BusinessID: user.BusinessID, BranchID: user.BranchID, Role: user.Role}
		session, created, err := services.OpenSession(database.DB, caller, creds.OpeningCash, opts.Scheduler.SessionMaxAge, now())
		if err != nil {
			respondError(c, err)
			return
		}
		resp["session"] = session
		resp["session_created"] = created
		resp["redirect"] = "/store"
	}

	token, expiresAt, err := issueToken(c, user)
	if err != nil {
		respondError(c, err)
		return
	}
	resp["token"] = token
	resp["expires_at"] = expiresAt
	c.JSON(http.StatusOK, resp)
}

// Logout clears the cookie. An open cash session stays open until it is
// closed explicitly or expires.
func Logout(c *gin.Context) {
	setTokenCookie(c, "", time.Time{})
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func GetProfile(c *gin.Context) {
	user, err := services.GetUser(database.DB, c.GetUint("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"user": user, "full_name": user.FullName()}
	if user.BusinessID != 0 {
		business, err := services.GetBusiness(database.DB, user.BusinessID)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["business"] = business
	}
	c.JSON(http.StatusOK, resp)
}

// ChangePassword allows a user to update their password
func ChangePassword(c *gin.Context) {
	var input struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if err := services.ChangePassword(database.DB, c.GetUint("user_id"), input.OldPassword, input.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
