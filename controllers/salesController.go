package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

// CreateSale records a sale against the caller's open cash session.
func CreateSale(c *gin.Context) {
	var input services.SaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	sale, err := services.CreateSale(database.DB, actor(c), input, now())
	if err != nil {
		respondError(c, err)
		return
	}
	opts.Metrics.SaleRecorded(sale.PaymentMethod)
	opts.Logger.Debug("sale recorded",
		zap.Uint("sale_id", sale.ID),
		zap.Uint("session_id", sale.SessionID),
		zap.Float64("total", sale.Total))
	c.JSON(http.StatusCreated, sale)
}

// GetSales supports ?session_id=, ?branch_id=, ?from= and ?to=.
func GetSales(c *gin.Context) {
	var (
		filter services.SaleFilter
		err    error
	)
	if filter.SessionID, err = queryUint(c, "session_id"); err != nil {
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

	sales, err := services.ListSales(database.DB, c.GetUint("business_id"), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// GetRecentSales returns the latest sales, five unless ?limit= says otherwise.
func GetRecentSales(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit <= 0 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "code": "INVALID_INPUT"})
		return
	}
	sales, err := services.RecentSales(database.DB, c.GetUint("business_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}
