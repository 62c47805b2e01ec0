// Package app wires repositories, services and handlers into a Fiber app.
package app

import (
	"time"

	"flashdeal/internal/cache"
	"flashdeal/internal/config"
	"flashdeal/internal/events"
	"flashdeal/internal/gateway"
	"flashdeal/internal/handlers"
	"flashdeal/internal/imaging"
	"flashdeal/internal/middleware"
	"flashdeal/internal/repositories"
	"flashdeal/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the external resources the app runs on.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client    // nil disables the listing cache
	Publisher events.Publisher // nil means events.Noop
	Gateway   gateway.Client
}

// New builds the HTTP app.
func New(cfg config.Config, log *zap.Logger, deps Deps) *fiber.App {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}

	userRepo := repositories.NewGORMUserRepository(deps.DB)
	categoryRepo := repositories.NewGORMCategoryRepository(deps.DB)
	productRepo := repositories.NewGORMProductRepository(deps.DB)
	cartRepo := repositories.NewGORMCartRepository(deps.DB)
	orderRepo := repositories.NewGORMOrderRepository(deps.DB)
	paymentRepo := repositories.NewGORMPaymentRepository(deps.DB)
	tx := repositories.NewTransactionManager(deps.DB)

	var listings services.ListingCache
	if deps.Redis != nil {
		listings = cache.NewProductCache(deps.Redis, cfg.ProductCacheTTL, log)
	}
	images := imaging.Store{Dir: cfg.UploadDir, PublicHost: cfg.PublicHost}

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry, log)
	userService := services.NewUserService(userRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	productService := services.NewProductService(productRepo, listings, images, publisher, log)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(tx, orderRepo, productRepo, listings, publisher, log)
	paymentService := services.NewPaymentService(tx, orderRepo, paymentRepo, deps.Gateway, cfg.Razorpay, publisher, log)

	var limiter *middleware.IPRateLimiter
	if cfg.LoginRateLimit > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst)
	}

	app := fiber.New(fiber.Config{
		AppName:      "flashdeal",
		ErrorHandler: handlers.ErrorHandler(log),
		BodyLimit:    imaging.MaxUploadSize + 1<<20,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	app.Static("/uploads", cfg.UploadDir)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	auth := middleware.AuthRequired(authService)
	api := app.Group("/api")

	handlers.NewAuthHandler(authService, limiter).RegisterRoutes(api)
	handlers.NewUserHandler(userService).RegisterRoutes(api, auth)
	handlers.NewCategoryHandler(categoryService).RegisterRoutes(api, auth)
	handlers.NewProductHandler(productService).RegisterRoutes(api, auth)
	handlers.NewCartHandler(cartService).RegisterRoutes(api, auth)
	handlers.NewOrderHandler(orderService).RegisterRoutes(api, auth)
	handlers.NewPaymentHandler(paymentService).RegisterRoutes(api, auth)

	return app
}
