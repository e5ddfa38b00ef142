package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/config"
	"github.com/marko-code-lab/noiddea-demo-sub002/controllers"
	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/metrics"
	"github.com/marko-code-lab/noiddea-demo-sub002/middleware"
	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

// SetupRoutes mounts the API, the bridge and the operational endpoints.
// controllers.Configure must have been called and database.DB set.
func SetupRoutes(router *gin.Engine, cfg *config.Config, tokens *auth.TokenService, m *metrics.Metrics) {
	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		CustomSchemas:    []string{"tauri://"},
	}))
	if cfg.Metrics.Enabled && m != nil {
		router.Use(m.Middleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.DB.DB().PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Public routes
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", controllers.Signup)
		authGroup.POST("/login", controllers.Login)
		authGroup.POST("/logout", controllers.Logout)
		authGroup.GET("/guard", controllers.Guard)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(
		middleware.AuthMiddleware(tokens, cfg.Auth.CookieName),
		middleware.ActiveUserMiddleware(database.DB),
	)
	{
		protected.GET("/auth/session", controllers.VerifyAuth)

		owner := middleware.RoleMiddleware(models.RoleOwner)
		dashboard := middleware.GuardMiddleware(database.DB, middleware.AppDashboard)
		store := middleware.GuardMiddleware(database.DB, middleware.AppStore)

		users := protected.Group("/users")
		{
			users.GET("/profile", controllers.GetProfile)
			users.POST("/changePassword", controllers.ChangePassword)
		}

		protected.GET("/business", controllers.GetBusiness)

		team := protected.Group("/team", owner, dashboard)
		{
			team.GET("", controllers.GetTeam)
			team.POST("", controllers.CreateTeamMember)
			team.PUT("/:id", controllers.UpdateTeamMember)
			team.DELETE("/:id", controllers.DeleteTeamMember)
		}

		branches := protected.Group("/branches")
		{
			branches.GET("", controllers.GetBranches)
			branches.GET("/:id", controllers.GetBranch)
			branches.POST("", owner, controllers.CreateBranch)
			branches.PUT("/:id", owner, controllers.UpdateBranch)
			branches.DELETE("/:id", owner, controllers.DeleteBranch)
		}

		categories := protected.Group("/categories")
		{
			categories.GET("", controllers.GetCategories)
			categories.GET("/:id", controllers.GetCategory)
			categories.GET("/:id/products", controllers.GetCategoryProducts)
			categories.POST("", owner, controllers.CreateCategory)
			categories.PUT("/:id", owner, controllers.UpdateCategory)
			categories.DELETE("/:id", owner, controllers.DeleteCategory)
		}

		suppliers := protected.Group("/suppliers")
		{
			suppliers.GET("", controllers.GetSuppliers)
			suppliers.GET("/:id", controllers.GetSupplier)
			suppliers.POST("", owner, controllers.CreateSupplier)
			suppliers.PUT("/:id", owner, controllers.UpdateSupplier)
			suppliers.DELETE("/:id", owner, controllers.DeleteSupplier)
		}

		products := protected.Group("/products")
		{
			products.GET("", controllers.GetProducts)
			products.GET("/total", controllers.NumberOfProducts)
			products.GET("/low-stock", controllers.LowStock)
			products.GET("/total-value", controllers.TotalValue)
			products.GET("/:id", controllers.GetProduct)
			products.GET("/:id/movements", controllers.GetProductMovements)
			products.POST("", owner, controllers.CreateProduct)
			products.PUT("/:id", owner, controllers.UpdateProduct)
			products.DELETE("/:id", owner, controllers.DeleteProduct)
			products.POST("/:id/adjust", owner, controllers.AdjustStock)
		}

		sessions := protected.Group("/sessions")
		{
			sessions.POST("/open", controllers.OpenCashSession)
			sessions.GET("/current", controllers.GetCurrentCashSession)
			sessions.POST("/current/close", controllers.CloseCashSession)
			sessions.GET("", owner, controllers.GetCashSessions)
			sessions.GET("/:id", owner, controllers.GetCashSession)
			sessions.POST("/:id/close", owner, controllers.CloseCashSession)
		}

		sales := protected.Group("/sales")
		{
			sales.POST("", store, controllers.CreateSale)
			sales.GET("", controllers.GetSales)
			sales.GET("/recent", controllers.GetRecentSales)
		}

		purchases := protected.Group("/purchases", owner)
		{
			purchases.GET("", controllers.GetPurchases)
			purchases.GET("/:id", controllers.GetPurchase)
			purchases.POST("", controllers.CreatePurchase)
			purchases.PUT("/:id", controllers.UpdatePurchase)
			purchases.DELETE("/:id", controllers.DeletePurchase)
			purchases.POST("/:id/receive", controllers.ReceivePurchase)
			purchases.POST("/:id/cancel", controllers.CancelPurchase)
		}

		protected.GET("/dashboard/stats", owner, dashboard, controllers.GetDashboardStats)
		protected.POST("/reports", owner, dashboard, controllers.GenerateReport)
	}

	if cfg.Bridge.Enabled {
		setupBridgeRoutes(router, cfg.Bridge)
	}
}

func setupBridgeRoutes(router *gin.Engine, cfg config.BridgeConfig) {
	b := router.Group("/bridge")
	if cfg.LoopbackOnly {
		b.Use(middleware.LoopbackOnly())
	}
	{
		b.POST("/db/query", controllers.BridgeQuery)
		b.POST("/db/execute", controllers.BridgeExecute)
		b.POST("/db/exec", controllers.BridgeExec)
		b.POST("/db/transaction", controllers.BridgeTransaction)
		b.GET("/db/path", controllers.BridgeDBPath)
		b.GET("/db/exists", controllers.BridgeDBExists)

		b.POST("/auth/hash-password", controllers.BridgeHashPassword)
		b.POST("/auth/verify-password", controllers.BridgeVerifyPassword)
		b.POST("/auth/generate-token", controllers.BridgeGenerateToken)

		b.GET("/app/version", controllers.BridgeVersion)
		b.GET("/app/path", controllers.BridgeAppPath)
		b.GET("/platform", controllers.BridgePlatform)
	}
}
