package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/bridge"
	"github.com/marko-code-lab/noiddea-demo-sub002/config"
	"github.com/marko-code-lab/noiddea-demo-sub002/metrics"
	"github.com/marko-code-lab/noiddea-demo-sub002/reports"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

// Options carries what the handlers need beyond database.DB.
type Options struct {
	Tokens    *auth.TokenService
	Auth      config.AuthConfig
	Scheduler config.SchedulerConfig
	Inventory config.InventoryConfig
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Bridge    *bridge.Bridge
	Now       func() time.Time
}

var opts = Options{Logger: zap.NewNop(), Now: time.Now}

// Configure must be called before the routes are served.
func Configure(o Options) {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	opts = o
}

func now() time.Time { return opts.Now().UTC() }

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{services.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{services.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{services.ErrConflict, http.StatusConflict, "CONFLICT"},
	{services.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
	{services.ErrNoOpenSession, http.StatusConflict, "NO_OPEN_SESSION"},
	{services.ErrSessionClosed, http.StatusConflict, "SESSION_CLOSED"},
	{services.ErrPurchaseNotPending, http.StatusConflict, "PURCHASE_NOT_PENDING"},
	{services.ErrLastOwner, http.StatusConflict, "LAST_OWNER"},
	{reports.ErrUnknownType, http.StatusBadRequest, "INVALID_REPORT_TYPE"},
}

// respondError maps service errors to a status and a stable code. Anything
// unknown is logged and reported as a server error.
func respondError(c *gin.Context, err error) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": err.Error(), "code": e.code})
			return
		}
	}
	opts.Logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "SERVER_ERROR"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_INPUT"})
}

// actor builds the service caller from the claims set by AuthMiddleware.
func actor(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:     c.GetUint("user_id"),
		BusinessID: c.GetUint("business_id"),
		BranchID:   c.GetUint("branch_id"),
		Role:       c.GetString("role"),
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "code": "INVALID_INPUT"})
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, name string) (uint, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return uint(id), nil
}

const dateLayout = "2006-01-02"

// parseDate accepts RFC3339 or a plain date. A plain end date covers the
// whole day.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// queryRange reads the optional from/to query parameters.
func queryRange(c *gin.Context) (from, to time.Time, err error) {
	if v := c.Query("from"); v != "" {
		if from, err = parseDate(v, false); err != nil {
			return from, to, errors.New("invalid from date")
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = parseDate(v, true); err != nil {
			return from, to, errors.New("invalid to date")
		}
	}
	return from, to, nil
}
