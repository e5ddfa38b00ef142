package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

// GetProducts supports ?q=, ?category_id=, ?low_stock=true and ?active=true.
func GetProducts(c *gin.Context) {
	filter := services.ProductFilter{
		Search:     c.Query("q"),
		LowStock:   c.Query("low_stock") == "true",
		ActiveOnly: c.Query("active") == "true",
	}
	categoryID, err := queryUint(c, "category_id")
	if err != nil {
		badRequest(c, err)
		return
	}
	if categoryID != 0 {
		filter.CategoryID = &categoryID
	}

	products, err := services.ListProducts(database.DB, c.GetUint("business_id"), opts.Inventory.LowStockThreshold, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := services.GetProduct(database.DB, c.GetUint("business_id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func CreateProduct(c *gin.Context) {
	var input services.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	product, err := services.CreateProduct(database.DB, actor(c), input, now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	product, err := services.UpdateProduct(database.DB, actor(c), id, input, now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := services.DeleteProduct(database.DB, c.GetUint("business_id"), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// AdjustStock applies a signed quantity, e.g. {"quantity": -2, "note": "broken"}.
func AdjustStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Quantity int    `json:"quantity" binding:"required"`
		Note     string `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	product, err := services.AdjustStock(database.DB, actor(c), id, input.Quantity, input.Note, now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func GetProductMovements(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	from, to, err := queryRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	movements, err := services.ListMovements(database.DB, c.GetUint("business_id"), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

// LowStock returns the count and the products at or below their reorder level.
func LowStock(c *gin.Context) {
	products, err := services.LowStockProducts(database.DB, c.GetUint("business_id"), opts.Inventory.LowStockThreshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(products), "items": products})
}

func NumberOfProducts(c *gin.Context) {
	count, err := services.CountProducts(database.DB, c.GetUint("business_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": count})
}

func TotalValue(c *gin.Context) {
	value, cost, err := services.InventoryValue(database.DB, c.GetUint("business_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_value": value, "total_cost": cost})
}
