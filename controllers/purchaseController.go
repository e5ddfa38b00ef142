package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

// GetPurchases supports ?status=pending|received|cancelled.
func GetPurchases(c *gin.Context) {
	purchases, err := services.ListPurchases(database.DB, c.GetUint("business_id"), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchases)
}

func GetPurchase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	purchase, err := services.GetPurchase(database.DB, c.GetUint("business_id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func CreatePurchase(c *gin.Context) {
	var input services.PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	purchase, err := services.CreatePurchase(database.DB, actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

func UpdatePurchase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	purchase, err := services.UpdatePurchase(database.DB, actor(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func DeletePurchase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := services.DeletePurchase(database.DB, c.GetUint("business_id"), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Purchase deleted"})
}

// ReceivePurchase applies a pending purchase to stock.
func ReceivePurchase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	purchase, err := services.ReceivePurchase(database.DB, c.GetUint("business_id"), id, c.GetUint("user_id"), now())
	if err != nil {
		respondError(c, err)
		return
	}
	opts.Logger.Info("purchase received", zap.Uint("purchase_id", purchase.ID), zap.String("reference", purchase.Reference))
	c.JSON(http.StatusOK, purchase)
}

func CancelPurchase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	purchase, err := services.CancelPurchase(database.DB, c.GetUint("business_id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}
