package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/arvand-shop/storefront-api/cache"
	"github.com/arvand-shop/storefront-api/cart"
	"github.com/arvand-shop/storefront-api/config"
	orderControllers "github.com/arvand-shop/storefront-api/controllers/order"
	"github.com/arvand-shop/storefront-api/events"
	"github.com/arvand-shop/storefront-api/middleware"
	"github.com/arvand-shop/storefront-api/models"
	"github.com/arvand-shop/storefront-api/payment"
	"github.com/arvand-shop/storefront-api/routes"
	"github.com/arvand-shop/storefront-api/services"
)

const cartSessionTTL = 30 * 24 * time.Hour

func main() {
	log.Println("starting storefront api...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
		&models.ShippingMethod{},
		&models.Order{},
		&models.OrderItem{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.PaymentGateway{},
		&models.Payment{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("automigrate failed: %v", err)
	}
	if err := models.SeedGateways(db); err != nil {
		log.Fatalf("gateway seed failed: %v", err)
	}

	cacheClient := cache.NewMemory()
	store := cart.NewSessionStore(cacheClient, cartSessionTTL)

	bus := events.NewBus()
	events.RegisterNotifier(bus, db)

	hub := orderControllers.NewHub()
	orderControllers.RegisterBroadcaster(bus, hub)

	orders := services.NewOrderService(db, bus)
	coupons := services.NewCouponService(db)
	payments := payment.NewService(db, cfg.Payment.Sandbox, payment.Credentials{
		MerchantID:  cfg.Payment.MerchantID,
		CallbackURL: cfg.BaseURL + "/payment/verify",
	})

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	metrics := middleware.NewMetrics("storefront")
	r.Use(metrics.Handler())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.SetupRoutes(r, routes.Deps{
		DB:       db,
		Config:   cfg,
		Store:    store,
		Cache:    cacheClient,
		Bus:      bus,
		Orders:   orders,
		Coupons:  coupons,
		Payments: payments,
		Hub:      hub,
	})

	// Reclaim stock from orders whose payment window lapsed.
	stop := make(chan struct{})
	defer close(stop)
	go orders.RunExpirySweep(time.Minute, stop)

	log.Printf("server running on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
