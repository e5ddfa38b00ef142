package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

// OpenCashSession starts a shift for the caller or returns the one already
// open. 201 means a new shift was created.
func OpenCashSession(c *gin.Context) {
	var input struct {
		OpeningCash float64 `json:"opening_cash"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
	}
	session, created, err := services.OpenSession(database.DB, actor(c), input.OpeningCash, opts.Scheduler.SessionMaxAge, now())
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, session)
}

func GetCurrentCashSession(c *gin.Context) {
	session, err := services.CurrentSession(database.DB, c.GetUint("user_id"))
	if err != nil {
		if errors.Is(err, services.ErrNoOpenSession) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No open session", "code": "NO_OPEN_SESSION"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":       session,
		"total":         session.Total(),
		"expected_cash": session.ExpectedCash(),
		"expired":       session.Expired(now()),
	})
}

// CloseCashSession closes the caller's shift, or the shift in :id for owners.
func CloseCashSession(c *gin.Context) {
	var id uint
	if c.Param("id") != "" {
		var ok bool
		if id, ok = paramID(c, "id"); !ok {
			return
		}
	}
	var input services.CloseInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
	}
	session, err := services.CloseSession(database.DB, actor(c), id, input, now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetCashSessions supports ?user_id=, ?branch_id=, ?open=true, ?from= and ?to=.
func GetCashSessions(c *gin.Context) {
	var (
		filter services.SessionFilter
		err    error
	)
	if filter.UserID, err = queryUint(c, "user_id"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.BranchID, err = queryUint(c, "branch_id"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.From, filter.To, err = queryRange(c); err != nil {
		badRequest(c, err)
		return
	}
	filter.OpenOnly = c.Query("open") == "true"

	sessions, err := services.ListSessions(database.DB, c.GetUint("business_id"), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func GetCashSession(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	session, err := services.GetSession(database.DB, c.GetUint("business_id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
