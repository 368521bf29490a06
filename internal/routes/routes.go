package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Admin notifications are skipped when the bot is not configured
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)

	userService := services.NewUserService(db, cfg.JWTSecret, cfg.TokenExpires)
	catalogService := services.NewCatalogService(db, cfg.PublicBaseURL)
	orderService := services.NewOrderService(db, telegramService, cfg.PublicBaseURL)
	reviewService := services.NewReviewService(db, cfg.PublicBaseURL)
	voucherService := services.NewVoucherService(db)

	authHandler := handlers.NewAuthHandler(userService)
	profileHandler := handlers.NewProfileHandler(userService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	productHandler := handlers.NewProductHandler(catalogService, cfg.UploadDir)
	orderHandler := handlers.NewOrderHandler(orderService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	voucherHandler := handlers.NewVoucherHandler(voucherService)
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(orderService)

	app.Static(utils.UploadsPrefix, cfg.UploadDir)

	auth := middleware.AuthMiddleware(cfg)
	admin := middleware.AdminOnly()

	api := app.Group("/api")

	// Auth routes
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)

	api.Get("/profile", auth, profileHandler.GetProfile)
	api.Put("/profile", auth, profileHandler.UpdateProfile)

	// Catalog routes
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", auth, admin, catalogHandler.CreateCategory)
	categories.Put("/:id", auth, admin, catalogHandler.UpdateCategory)
	categories.Delete("/:id", auth, admin, catalogHandler.DeleteCategory)

	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/:id", productHandler.GetProduct)
	products.Post("/", auth, admin, productHandler.CreateProduct)
	products.Put("/:id", auth, admin, productHandler.UpdateProduct)
	products.Delete("/:id", auth, admin, productHandler.DeleteProduct)

	// Reviews
	products.Get("/:id/reviews", reviewHandler.ListProductReviews)
	products.Post("/:id/reviews", auth, reviewHandler.SubmitReview)
	api.Delete("/reviews/:id", auth, reviewHandler.DeleteReview)

	// Orders
	orders := api.Group("/orders", auth)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Put("/:id/status", admin, orderHandler.UpdateStatus)
	orders.Put("/:id/cancel", orderHandler.CancelOrder)

	api.Get("/revenue/monthly", auth, admin, adminHandler.MonthlyRevenue)

	adminGroup := api.Group("/admin", auth, admin)
	adminGroup.Get("/stats", adminHandler.DashboardStats)
	adminGroup.Get("/reviews", reviewHandler.ListAllReviews)
	adminGroup.Get("/products", productHandler.ListAllProducts)

	vouchers := api.Group("/vouchers", auth, admin)
	vouchers.Get("/", voucherHandler.ListVouchers)
	vouchers.Get("/:id", voucherHandler.GetVoucher)
	vouchers.Post("/", voucherHandler.CreateVoucher)
	vouchers.Put("/:id", voucherHandler.UpdateVoucher)
	vouchers.Delete("/:id", voucherHandler.DeleteVoucher)

	users := api.Group("/users", auth)
	users.Get("/", admin, userHandler.ListUsers)
	users.Get("/:id", admin, userHandler.GetUser)
	users.Post("/", admin, userHandler.CreateUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", admin, userHandler.DeleteUser)
}
