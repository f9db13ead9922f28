// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/config"
	"github.com/your-org/food-ordering-backend/internal/domain/cart"
	"github.com/your-org/food-ordering-backend/internal/domain/discount"
	"github.com/your-org/food-ordering-backend/internal/domain/order"
	"github.com/your-org/food-ordering-backend/internal/domain/product"
	"github.com/your-org/food-ordering-backend/internal/domain/user"
	"github.com/your-org/food-ordering-backend/internal/interfaces/http/handlers"
	"github.com/your-org/food-ordering-backend/internal/interfaces/http/middleware"
	"github.com/your-org/food-ordering-backend/internal/pkg/auth"
)

// Dependencies are the collaborators the handlers are built from.
// Nil CountCache and Idempotency disable those features.
type Dependencies struct {
	DB          *gorm.DB
	Config      *config.Config
	CountCache  cart.CountCache
	Idempotency order.IdempotencyStore
	Publisher   order.EventPublisher
	Receipts    handlers.ReceiptRenderer
}

// Handlers groups every HTTP handler
type Handlers struct {
	Auth      *handlers.AuthHandler
	Profile   *handlers.UserProfileHandler
	Address   *handlers.AddressHandler
	UserAdmin *handlers.UserAdminHandler
	Category  *handlers.CategoryHandler
	Product   *handlers.ProductHandler
	Review    *handlers.ReviewHandler
	Cart      *handlers.CartHandler
	Discount  *handlers.DiscountHandler
	Order     *handlers.OrderHandler
	Receipt   *handlers.ReceiptHandler
}

// NewHandlers builds the domain services and their handlers
func NewHandlers(deps Dependencies) *Handlers {
	db, cfg := deps.DB, deps.Config

	userService := user.NewService(db, cfg)
	cartService := cart.NewService(db, deps.CountCache)
	discountService := discount.NewService(db)
	orderService := order.NewService(db, cfg, cartService, deps.Publisher, deps.Idempotency)

	return &Handlers{
		Auth:      handlers.NewAuthHandler(userService),
		Profile:   handlers.NewUserProfileHandler(userService),
		Address:   handlers.NewAddressHandler(user.NewAddressService(db)),
		UserAdmin: handlers.NewUserAdminHandler(user.NewAdminService(db)),
		Category:  handlers.NewCategoryHandler(product.NewCategoryService(db)),
		Product:   handlers.NewProductHandler(product.NewService(db)),
		Review:    handlers.NewReviewHandler(product.NewReviewService(db)),
		Cart:      handlers.NewCartHandler(cartService),
		Discount:  handlers.NewDiscountHandler(discountService, cartService),
		Order:     handlers.NewOrderHandler(orderService),
		Receipt:   handlers.NewReceiptHandler(orderService, deps.Receipts),
	}
}

// SetupRoutes registers every API route under rg
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, jwtManager *auth.JWTManager) {
	authRequired := middleware.AuthMiddleware(jwtManager)

	SetupAuthRoutes(rg, h, authRequired)
	SetupCatalogRoutes(rg, h)
	SetupCustomerRoutes(rg, h, authRequired)
	SetupAdminRoutes(rg, h, authRequired)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h *Handlers, authRequired gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.RefreshToken)

		protected := authGroup.Group("")
		protected.Use(authRequired)
		{
			protected.POST("/logout", h.Auth.Logout)
			protected.GET("/profile", h.Profile.GetProfile)
			protected.PUT("/profile", h.Profile.UpdateProfile)
			protected.PUT("/change-password", h.Profile.ChangePassword)
		}
	}
}

// SetupCatalogRoutes sets up the public menu routes
func SetupCatalogRoutes(rg *gin.RouterGroup, h *Handlers) {
	categories := rg.Group("/categories")
	{
		categories.GET("", h.Category.GetCategories)
		categories.GET("/:id", h.Category.GetCategory)
		categories.GET("/:id/products", h.Category.GetCategoryProducts)
	}

	products := rg.Group("/products")
	{
		products.GET("", h.Product.GetProducts)
		products.GET("/popular", h.Product.GetPopularProducts)
		products.GET("/discounted", h.Product.GetDiscountedProducts)
		products.GET("/:id", h.Product.GetProduct)
		products.GET("/:id/reviews", h.Review.GetProductReviews)
	}
}

// SetupCustomerRoutes sets up routes for signed-in customers
func SetupCustomerRoutes(rg *gin.RouterGroup, h *Handlers, authRequired gin.HandlerFunc) {
	cartGroup := rg.Group("/cart", authRequired)
	{
		cartGroup.GET("", h.Cart.GetCart)
		cartGroup.DELETE("", h.Cart.ClearCart)
		cartGroup.GET("/count", h.Cart.GetCartCount)
		cartGroup.GET("/validate", h.Cart.ValidateCart)
		cartGroup.POST("/items", h.Cart.AddToCart)
		cartGroup.PUT("/items/:itemId", h.Cart.UpdateCartItem)
		cartGroup.DELETE("/items/:itemId", h.Cart.RemoveFromCart)
		cartGroup.DELETE("/unavailable", h.Cart.RemoveUnavailable)
	}

	addresses := rg.Group("/addresses", authRequired)
	{
		addresses.GET("", h.Address.GetAddresses)
		addresses.POST("", h.Address.CreateAddress)
		addresses.GET("/default", h.Address.GetDefaultAddress)
		addresses.GET("/count", h.Address.GetAddressCount)
		addresses.GET("/:id", h.Address.GetAddress)
		addresses.PUT("/:id", h.Address.UpdateAddress)
		addresses.PATCH("/:id/default", h.Address.SetDefaultAddress)
		addresses.DELETE("/:id", h.Address.DeleteAddress)
	}

	reviews := rg.Group("/reviews", authRequired)
	{
		reviews.GET("/me", h.Review.GetMyReviews)
		reviews.GET("/can-review/:productId", h.Review.CanReview)
		reviews.POST("", h.Review.CreateReview)
		reviews.PUT("/:id", h.Review.UpdateReview)
		reviews.DELETE("/:id", h.Review.DeleteReview)
	}

	rg.POST("/discounts/validate", authRequired, h.Discount.ValidateCode)

	orders := rg.Group("/orders", authRequired)
	{
		orders.GET("", h.Order.GetOrders)
		orders.POST("", h.Order.CreateOrder)
		orders.GET("/:id", h.Order.GetOrder)
		orders.POST("/:id/cancel", h.Order.CancelOrder)
		orders.GET("/:id/receipt", h.Receipt.DownloadReceipt)
	}
}

// SetupAdminRoutes sets up admin routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *Handlers, authRequired gin.HandlerFunc) {
	admin := rg.Group("/admin", authRequired, middleware.AdminMiddleware())

	orders := admin.Group("/orders")
	{
		orders.GET("", h.Order.AdminGetOrders)
		orders.GET("/stats", h.Order.GetOrderStats)
		orders.GET("/export", h.Order.ExportOrders)
		orders.GET("/:id", h.Order.AdminGetOrder)
		orders.PATCH("/:id/status", h.Order.UpdateOrderStatus)
		orders.GET("/:id/history", h.Order.GetOrderHistory)
	}

	discounts := admin.Group("/discounts")
	{
		discounts.GET("", h.Discount.ListDiscounts)
		discounts.POST("", h.Discount.CreateDiscount)
		discounts.GET("/:id", h.Discount.GetDiscount)
		discounts.PUT("/:id", h.Discount.UpdateDiscount)
		discounts.DELETE("/:id", h.Discount.DeleteDiscount)
		discounts.PATCH("/:id/toggle", h.Discount.ToggleDiscount)
	}

	categories := admin.Group("/categories")
	{
		categories.GET("", h.Category.AdminListCategories)
		categories.POST("", h.Category.CreateCategory)
		categories.PUT("/reorder", h.Category.ReorderCategories)
		categories.GET("/:id", h.Category.AdminGetCategory)
		categories.PUT("/:id", h.Category.UpdateCategory)
		categories.DELETE("/:id", h.Category.DeleteCategory)
	}

	products := admin.Group("/products")
	{
		products.GET("", h.Product.AdminGetProducts)
		products.POST("", h.Product.CreateProduct)
		products.GET("/:id", h.Product.AdminGetProduct)
		products.PUT("/:id", h.Product.UpdateProduct)
		products.DELETE("/:id", h.Product.DeleteProduct)
		products.PATCH("/:id/availability", h.Product.ToggleAvailability)
		products.PATCH("/:id/popular", h.Product.TogglePopular)
		products.POST("/:id/images", h.Product.AddProductImage)
		products.PUT("/:id/images/reorder", h.Product.ReorderProductImages)
		products.PUT("/images/:imageId", h.Product.UpdateProductImage)
		products.DELETE("/images/:imageId", h.Product.DeleteProductImage)
	}

	reviews := admin.Group("/reviews")
	{
		reviews.GET("", h.Review.AdminGetReviews)
		reviews.GET("/stats", h.Review.AdminGetReviewStats)
		reviews.POST("/bulk-approve", h.Review.AdminBulkApprove)
		reviews.POST("/bulk-delete", h.Review.AdminBulkDelete)
		reviews.GET("/:id", h.Review.AdminGetReview)
		reviews.PATCH("/:id/approval", h.Review.AdminSetApproval)
		reviews.DELETE("/:id", h.Review.AdminDeleteReview)
	}

	users := admin.Group("/users")
	{
		users.GET("", h.UserAdmin.ListUsers)
		users.GET("/:id", h.UserAdmin.GetUser)
		users.PATCH("/:id/status", h.UserAdmin.UpdateUserStatus)
		users.PATCH("/:id/role", h.UserAdmin.UpdateUserRole)
	}
}
