// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/handlers"
	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// Dependencies are the outbound integrations built by the caller.
type Dependencies struct {
	Gateway       services.PaymentGateway
	Geocoder      services.Geocoder
	Publisher     services.OrderEventPublisher
	ShippingRates services.ShippingRates
	Storage       *services.StorageService
}

func Initialize(db *gorm.DB, cfg *config.Config, deps Dependencies) *gin.Engine {
	// Initialize services
	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	productService := services.NewProductService(db)
	cartService := services.NewCartService(db)
	checkoutService := services.NewCheckoutService(db, deps.Gateway, deps.ShippingRates, cfg.Payment)
	orderService := services.NewOrderService(db)
	webhookService := services.NewWebhookService(db, cfg, deps.Geocoder, deps.Publisher)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, deps.Storage)
	productHandler := handlers.NewProductHandler(productService, deps.Storage)
	cartHandler := handlers.NewCartHandler(cartService, checkoutService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(webhookService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Payment provider notifications are signed and retried, so they bypass the limiter.
	r.POST("/webhook/stripe/", paymentHandler.Webhook)

	authRequired := middleware.AuthRequired(cfg.Cookie.Name)

	api := r.Group("")
	api.Use(middleware.GeneralRateLimit())
	{
		// Authentication routes
		auth := api.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/token/", authHandler.Login)
			auth.POST("/logout", authRequired, authHandler.Logout)
		}

		// User routes
		users := api.Group("/user")
		users.Use(authRequired)
		{
			users.GET("/me/", userHandler.GetMe)
			users.POST("/me/addresses", userHandler.AddAddress)
			users.PATCH("/:id/role", middleware.SuperuserRequired(), userHandler.UpdateRole)
		}

		// Category routes
		categories := api.Group("/category")
		{
			categories.GET("/", categoryHandler.ListCategories)
			categories.GET("/:slug", categoryHandler.GetCategory)
			categories.GET("/:slug/products", categoryHandler.ListProducts)

			staff := categories.Group("")
			staff.Use(authRequired, middleware.EmployeeRequired())
			{
				staff.POST("/", categoryHandler.CreateCategory)
				staff.PATCH("/:slug", categoryHandler.UpdateCategory)
				staff.POST("/:slug/image", middleware.UploadRateLimit(), categoryHandler.UploadImage)
			}
		}

		// Product routes
		products := api.Group("/product")
		{
			products.GET("/:slug", productHandler.GetProduct)

			staff := products.Group("")
			staff.Use(authRequired, middleware.EmployeeRequired())
			{
				staff.POST("/", productHandler.CreateProduct)
				staff.PATCH("/:id", productHandler.UpdateProduct)
				staff.POST("/:id/image", middleware.UploadRateLimit(), productHandler.UploadImage)
			}
		}

		// Search routes
		api.GET("/search/", productHandler.Search)

		// Cart routes
		cart := api.Group("/cart")
		cart.Use(authRequired)
		{
			cart.GET("/", cartHandler.GetCart)
			cart.POST("/", cartHandler.AddItem)
			cart.POST("/checkout/", cartHandler.Checkout)
			cart.PATCH("/:itemId", cartHandler.UpdateItem)
			cart.DELETE("/:itemId", cartHandler.DeleteItem)
		}

		// Order routes
		orders := api.Group("/order")
		orders.Use(authRequired)
		{
			orders.GET("/", orderHandler.ListOrders)
			orders.GET("/:id/", orderHandler.GetOrder)
			orders.PATCH("/:id/status", middleware.EmployeeRequired(), orderHandler.UpdateStatus)
		}
	}

	// Uploaded images when no bucket is configured
	if deps.Storage != nil && deps.Storage.LocalDir() != "" {
		r.Static("/uploads", deps.Storage.LocalDir())
	}

	return r
}
