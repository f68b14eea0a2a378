package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/cart"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/events"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/handler"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/pricing"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/repository"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/service"
	"github.com/Andrewcephas/food-fusion-commerce-hub/pkg/config"
	"github.com/Andrewcephas/food-fusion-commerce-hub/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Info("Service configuration",
		zap.String("port", cfg.Port),
		zap.String("kafka_brokers", cfg.KafkaBrokers),
		zap.String("delivery_fee", cfg.DeliveryFee.String()),
		zap.String("tax_rate", cfg.TaxRate.String()))

	// Initialize components
	dynamoClient, err := repository.NewDynamoDBClient(cfg)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client:", err)
	}

	kafkaProducer, err := events.NewKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		log.Fatal("Failed to create Kafka producer:", err)
	}
	defer kafkaProducer.Close()

	inventoryProducer := events.NewCompensationProducer(cfg.KafkaBrokers, logger)
	defer inventoryProducer.Close()

	catalogRepo := repository.NewCatalogRepository(dynamoClient, cfg.CatalogTableName)
	orderRepo := repository.NewOrderRepository(dynamoClient, cfg.OrderTableName)
	cartRepo := repository.NewCartRepository(dynamoClient, cfg.CartTableName)

	storefrontPricing := pricing.Config{DeliveryFee: cfg.DeliveryFee, TaxRate: cfg.TaxRate}
	cartService := cart.NewService(catalogRepo, cartRepo, storefrontPricing, logger)
	checkoutService := service.NewCheckoutService(
		cartService, catalogRepo, orderRepo, kafkaProducer, inventoryProducer,
		storefrontPricing, domain.OrderStatusPending, logger)

	// POS registers keep their running order in memory and pay on the spot:
	// no delivery fee, orders land as CONFIRMED.
	posPricing := pricing.Config{DeliveryFee: decimal.Zero, TaxRate: cfg.TaxRate}
	posCartService := cart.NewService(catalogRepo, repository.NewMemoryCartRepository(), posPricing, logger)
	posCheckoutService := service.NewCheckoutService(
		posCartService, catalogRepo, orderRepo, kafkaProducer, inventoryProducer,
		posPricing, domain.OrderStatusConfirmed, logger)

	catalogService := service.NewCatalogService(catalogRepo, inventoryProducer, logger)

	catalogHandler := handler.NewCatalogHandler(catalogService, logger)
	cartHandler := handler.NewCartHandler(cartService, logger)
	orderHandler := handler.NewOrderHandler(checkoutService, logger)
	posHandler := handler.NewPOSHandler(posCartService, posCheckoutService, logger)

	// Setup Gin Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	// Routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", catalogHandler.ListProducts)
		v1.GET("/products/:id", catalogHandler.GetProduct)
		v1.GET("/categories", catalogHandler.ListCategories)

		v1.GET("/cart", cartHandler.GetCart)
		v1.POST("/cart/items", cartHandler.AddItem)
		v1.PATCH("/cart/items/:productId", cartHandler.UpdateItem)
		v1.DELETE("/cart/items/:productId", cartHandler.RemoveItem)

		v1.POST("/checkout", orderHandler.Checkout)
		v1.GET("/orders/:id", orderHandler.GetOrder)

		v1.POST("/pos/items", posHandler.AddItem)
		v1.POST("/pos/orders", posHandler.ProcessPayment)

		v1.POST("/admin/products", catalogHandler.CreateProduct)
		v1.PUT("/admin/products/:id/stock", catalogHandler.UpdateStock)

		v1.GET("/health", func(c *gin.Context) {
			status := gin.H{
				"status":  "healthy",
				"service": "storefront-service",
				"port":    cfg.Port,
			}
			if err := kafkaProducer.HealthCheck(); err != nil {
				status["kafka"] = "unhealthy"
				c.JSON(503, status)
				return
			}
			status["kafka"] = "healthy"
			c.JSON(200, status)
		})
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
