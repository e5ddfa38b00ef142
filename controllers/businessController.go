package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/services"
)

func GetBusiness(c *gin.Context) {
	business, err := services.GetBusiness(database.DB, c.GetUint("business_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

// Team members

func GetTeam(c *gin.Context) {
	members, err := services.ListMembers(database.DB, c.GetUint("business_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func CreateTeamMember(c *gin.Context) {
	var input services.MemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	user, err := services.CreateMember(database.DB, actor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func UpdateTeamMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.MemberUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	user, err := services.UpdateMember(database.DB, actor(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func DeleteTeamMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := services.RemoveMember(database.DB, actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Team member removed"})
}

// Branches

func GetBranches(c *gin.Context) {
	branches, err := services.ListBranches(database.DB, c.GetUint("business_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

func GetBranch(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	branch, err := services.GetBranch(database.DB, c.GetUint("business_id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

func CreateBranch(c *gin.Context) {
	var input services.BranchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	branch, err := services.CreateBranch(database.DB, c.GetUint("business_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

func UpdateBranch(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.BranchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	branch, err := services.UpdateBranch(database.DB, c.GetUint("business_id"), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

func DeleteBranch(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := services.DeleteBranch(database.DB, c.GetUint("business_id"), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Branch deleted"})
}

// Categories

type categoryInput struct {
	Name string `json:"name" binding:"required"`
}

func GetCategories(c *gin.Context) {
	categories, err := services.ListCategories(database.DB, c.GetUint("business_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func GetCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	category, err := services.GetCategory(database.DB, c.GetUint("business_id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// GetCategoryProducts lists the products filed under a category.
func GetCategoryProducts(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	businessID := c.GetUint("business_id")
	if _, err := services.GetCategory(database.DB, businessID, id); err != nil {
		respondError(c, err)
		return
	}
	products, err := services.ListProducts(database.DB, businessID, opts.Inventory.LowStockThreshold, services.ProductFilter{CategoryID: &id})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func CreateCategory(c *gin.Context) {
	var input categoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	category, err := services.CreateCategory(database.DB, c.GetUint("business_id"), input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input categoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	category, err := services.RenameCategory(database.DB, c.GetUint("business_id"), id, input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := services.DeleteCategory(database.DB, c.GetUint("business_id"), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// Suppliers

func GetSuppliers(c *gin.Context) {
	suppliers, err := services.ListSuppliers(database.DB, c.GetUint("business_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func GetSupplier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	supplier, err := services.GetSupplier(database.DB, c.GetUint("business_id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func CreateSupplier(c *gin.Context) {
	var input services.SupplierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	supplier, err := services.CreateSupplier(database.DB, c.GetUint("business_id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func UpdateSupplier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.SupplierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	supplier, err := services.UpdateSupplier(database.DB, c.GetUint("business_id"), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func DeleteSupplier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := services.DeleteSupplier(database.DB, c.GetUint("business_id"), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted"})
}
