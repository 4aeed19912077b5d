package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	appauth "shopd/internal/application/auth"
	appcart "shopd/internal/application/cart"
	appcheckout "shopd/internal/application/checkout"
	"shopd/internal/domain/cart"
	"shopd/internal/domain/order"
	"shopd/internal/domain/payment"
	"shopd/internal/domain/product"
	"shopd/internal/domain/user"
	"shopd/internal/infrastructure/id"
	"shopd/internal/infrastructure/memory"
	"shopd/internal/infrastructure/notification"
	"shopd/internal/infrastructure/outbox"
	"shopd/internal/infrastructure/postgres"
	"shopd/internal/infrastructure/reaper"
	"shopd/internal/infrastructure/rediscache"
	"shopd/internal/infrastructure/stripe"
	httppresentation "shopd/internal/presentation/http"
	"shopd/internal/pkg/config"
	"shopd/internal/pkg/logging"
	"shopd/internal/rbac"
)

func main() {
	cfg := config.Load()

	logger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	eventPublishFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_failed_total",
			Help: "Count of order event publish failures.",
		},
		[]string{"event"},
	)
	notificationFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Count of notification deliveries that failed.",
		},
		[]string{"event"},
	)
	prometheus.MustRegister(httpRequests, httpDuration, eventPublishFailures, notificationFailures)

	var (
		cartRepo    cart.Repository
		productRepo product.Repository
		orderStore  order.Store
		paymentRepo payment.Repository
		userRepo    user.Repository
	)
	switch cfg.Store {
	case "postgres":
		pg, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("postgres_open_failed", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.RunMigrations(cfg.MigrationsDir); err != nil {
			logger.Fatal("postgres_migrations_failed", zap.Error(err))
		}
		cartRepo, productRepo, orderStore, paymentRepo, userRepo = pg, pg, pg, pg, pg
		logger.Info("store_selected", zap.String("store", "postgres"))
	default:
		mem := memory.NewStore()
		cartRepo, productRepo, orderStore, paymentRepo, userRepo = mem, mem, mem, mem, mem
		logger.Info("store_selected", zap.String("store", "memory"))
	}

	var cartCache appcart.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = client.Close() }()
		cartCache = rediscache.NewCartCache(client)
		logger.Info("cart_cache_enabled", zap.String("addr", cfg.RedisAddr))
	}

	var gateway appcheckout.Gateway
	switch cfg.Gateway {
	case "stripe":
		gateway = stripe.NewClient(cfg.StripeSecret, cfg.StripeBaseURL)
		logger.Info("gateway_selected", zap.String("gateway", "stripe"))
	default:
		gateway = stripe.NewStubGateway()
		logger.Info("gateway_selected", zap.String("gateway", "stub"))
	}

	ids := id.NewUUIDGenerator()

	bus := outbox.NewBus(logger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	cartService := appcart.NewService(cartRepo, productRepo, cartCache, ids)
	checkoutService := appcheckout.NewService(
		orderStore, paymentRepo, productRepo, cartService, gateway, ids, bus,
		appcheckout.Config{
			SuccessURL: cfg.CheckoutSuccessURL,
			CancelURL:  cfg.CheckoutCancelURL,
			Pricing: appcheckout.PricingConfig{
				ShippingFee:     cfg.ShippingFee,
				TaxRate:         cfg.TaxRate,
				DiscountPercent: cfg.DiscountPercent,
			},
			LowStockThreshold: cfg.LowStockThreshold,
		},
		eventPublishFailures,
	)
	authService := appauth.NewService(userRepo, cartService, ids, cfg.JWTSecret, cfg.TokenTTL)
	policy := rbac.New()

	notifier := notification.NewLogNotifier(logger)
	notificationWorker := notification.NewWorker(bus, notifier, logger, notificationFailures)
	notificationWorker.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cartReaper := reaper.New(cartRepo, cfg.CartTTL, cfg.ReapInterval, logger)
	go cartReaper.Run(ctx)

	handler := httppresentation.NewHandler(
		cartService, checkoutService, authService, productRepo, policy,
		appcheckout.PricingConfig{
			ShippingFee:     cfg.ShippingFee,
			TaxRate:         cfg.TaxRate,
			DiscountPercent: cfg.DiscountPercent,
		},
		logger,
	)
	router := handler.Router(httppresentation.RouterConfig{
		Requests: httpRequests,
		Duration: httpDuration,
		Limiter:  httppresentation.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Session-ID", "X-Request-ID"},
		AllowCredentials: false,
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: corsWrapper.Handler(mux),
	}

	go func() {
		logger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		logger.Info("http_server_stopped")
	}
}
