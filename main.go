package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricing-service/catalog"
	"pricing-service/config"
	"pricing-service/controllers"
	"pricing-service/database"
	"pricing-service/kafka"
	"pricing-service/logger"
	"pricing-service/middleware"
	"pricing-service/models"
	aws_pkg "pricing-service/pkg/aws"
	"pricing-service/pricing"
	"pricing-service/repository"
	"pricing-service/routes"
	"pricing-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	ctx := context.Background()

	// --- Redis ---
	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("Redis connection failed", zap.Error(err))
	}
	cartRepo := database.NewCartRepository(redisClient, cfg.CartTTL)

	// --- Coupon policy ---
	var policy pricing.CouponPolicy = pricing.DemoPolicy{Rate: cfg.CouponRate, Cap: cfg.CouponCap}
	var db *gorm.DB
	if cfg.CouponRegistryEnabled {
		db, err = database.ConnectPostgres(cfg.PostgresDSN(), log, &models.Coupon{})
		if err != nil {
			log.Fatal("DB connection failed", zap.Error(err))
		}
		policy = pricing.NewRegistryPolicy(repository.NewGormCouponRepository(db))
		log.Info("Coupon registry enabled")
	}

	// --- AWS SNS and CloudWatch (optional) ---
	var snsClient aws_pkg.SNSPublisher
	var metrics middleware.MetricsRecorder
	if cfg.CouponSNSTopicARN != "" || cfg.CloudWatchEnabled {
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Warn("Failed to load AWS config, coupon events and metrics disabled", zap.Error(err))
		} else {
			if cfg.CouponSNSTopicARN != "" {
				snsClient = aws_pkg.NewSNSClient(awsCfg)
			}
			if cfg.CloudWatchEnabled {
				metrics = aws_pkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace)
				log.Info("CloudWatch metrics enabled", zap.String("namespace", cfg.CloudWatchNamespace))
			}
		}
	}

	// --- Kafka (optional) ---
	var producer *kafka.Producer
	var events services.EventPublisher
	if cfg.KafkaBrokers != "" {
		producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaCartTopic, cfg.KafkaCheckoutTopic)
		events = producer
	} else {
		log.Warn("KAFKA_BROKERS not set, cart events and checkout disabled")
	}

	// --- Dependency injection ---
	products, err := catalog.Default()
	if err != nil {
		log.Fatal("Catalog load failed", zap.Error(err))
	}
	calc := pricing.NewCalculator(pricing.ShippingRules{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingRate:      cfg.FlatShippingRate,
	})
	couponService := services.NewCouponService(pricing.NewCouponEvaluator(policy), snsClient, cfg.CouponSNSTopicARN, log)

	cartOpts := services.DefaultCartOptions()
	cartOpts.IdleTTL = cfg.SessionIdleTTL
	cartOpts.IdempotencyTTL = cfg.IdempotencyTTL
	cartService := services.NewCartService(cartRepo, products, calc, couponService, events, log, cartOpts)
	quoteService := services.NewQuoteService(calc, couponService, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, 5*time.Minute)
	stopLimiter := make(chan struct{})
	go limiter.Run(stopLimiter)

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(metrics, "pricing-service", log))
	r.Use(middleware.Timeout(30 * time.Second))

	routes.RegisterCartRoutes(r, controllers.NewCartController(cartService, log), limiter)
	routes.RegisterCatalogRoutes(r,
		controllers.NewProductController(products, log),
		controllers.NewPricingController(quoteService),
		limiter)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "pricing-service"})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Pricing Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	close(stopLimiter)
	cartService.Close()

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("Kafka producer close error", zap.Error(err))
		}
	}
	if err := redisClient.Close(); err != nil {
		log.Error("Redis close error", zap.Error(err))
	}
	if db != nil {
		if err := database.ClosePostgres(db); err != nil {
			log.Error("Database close error", zap.Error(err))
		}
	}

	log.Info("Pricing Service stopped gracefully")
}
