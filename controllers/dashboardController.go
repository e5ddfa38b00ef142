package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

// GetDashboardStats summarizes the business, or one branch with ?branch_id=.
// "Today" follows the server's local clock.
func GetDashboardStats(c *gin.Context) {
	branchID, err := queryUint(c, "branch_id")
	if err != nil {
		badRequest(c, err)
		return
	}
	stats, err := services.Stats(database.DB, c.GetUint("business_id"), branchID, opts.Inventory.LowStockThreshold, opts.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
