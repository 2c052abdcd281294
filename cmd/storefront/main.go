package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/shopease/internal/backend"
	"github.com/fjod/shopease/internal/cache"
	"github.com/fjod/shopease/internal/config"
	"github.com/fjod/shopease/internal/events"
	h "github.com/fjod/shopease/internal/http"
	"github.com/fjod/shopease/internal/pricing"
	"github.com/fjod/shopease/internal/repository"
	"github.com/fjod/shopease/internal/service"
	"github.com/fjod/shopease/internal/session"
	"github.com/fjod/shopease/pkg/logger"
	"github.com/fjod/shopease/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New("storefront", cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	repo, closeRepo := openRepository(ctx, cfg)
	defer closeRepo()

	var collCache cache.CollectionCache = cache.NopCache{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		log.Printf("Redis ping succeeded at %s", cfg.RedisAddr)
		collCache = cache.NewRedisCache(redisClient)
	}

	hub := events.NewHub()
	notifier, closeEvents := startEvents(ctx, cfg, hub, zl)
	defer closeEvents()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics("storefront", reg)

	client, err := backend.New(cfg.BackendBaseURL,
		backend.WithBreaker(cfg.Breaker),
		backend.WithLogger(zl),
		backend.WithObserver(serverMetrics.ObserveUpstream),
	)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}
	log.Printf("Using backend at %s", cfg.BackendBaseURL)

	sessions := session.NewManager(client, zl)
	if cfg.SessionSecret == "" {
		log.Printf("SESSION_SECRET not set, sign-ins will not survive a restart")
	}
	owners, err := session.NewOwnerSigner([]byte(cfg.SessionSecret), 0)
	if err != nil {
		log.Fatalf("Failed to create owner signer: %v", err)
	}
	calc := pricing.NewCalculator(cfg.Pricing)

	cart := service.NewCartService(repo, collCache, calc, notifier, zl).WithCatalog(client)
	router := h.NewRouter(h.Deps{
		Cart:      cart,
		Wishlist:  service.NewWishlistService(repo, collCache, cart, notifier, zl),
		Checkout:  service.NewCheckoutService(cart, client, sessions, calc, notifier, zl),
		Addresses: service.NewAddressService(client, sessions, zl),
		Orders:    service.NewOrderService(client, sessions, zl),
		Accounts:  service.NewAccountService(client, sessions, cart, zl),
		Catalog:   service.NewCatalogService(client, sessions, zl),

		Events:  hub,
		Guard:   session.NewGuard(),
		Owners:  owners,
		Metrics: serverMetrics,
		Logger:  zl,

		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		CookieSecure:       cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.CollectionRepository, func()) {
	switch cfg.StoreDriver {
	case "mongo":
		mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		repo := repository.NewMongoRepository(mongoDB)
		if err := repo.CreateIndexes(ctx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		log.Printf("Connected to MongoDB at %s", cfg.MongoURI)
		return repo, func() { repo.Close(context.Background()) }

	case "postgres", "sqlite":
		var repo *repository.SQLRepository
		if cfg.StoreDriver == "postgres" {
			db, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
			if err != nil {
				log.Fatalf("Failed to connect to Postgres: %v", err)
			}
			repo = repository.NewSQLRepository(db, repository.DialectPostgres)
		} else {
			db, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
			if err != nil {
				log.Fatalf("Failed to open SQLite at %s: %v", cfg.SQLitePath, err)
			}
			repo = repository.NewSQLRepository(db, repository.DialectSQLite)
		}
		if err := repo.RunMigrations(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Printf("Using %s collection store", cfg.StoreDriver)
		return repo, func() { repo.Close() }

	default:
		log.Printf("Using in-memory collection store")
		return repository.NewMemoryRepository(), func() {}
	}
}

// startEvents returns the notifier services publish to. Every driver
// delivers to the local hub; kafka and rabbitmq also fan out to other
// instances and replay their events into the hub.
func startEvents(ctx context.Context, cfg *config.Config, hub *events.Hub, zl *zap.Logger) (events.Notifier, func()) {
	switch cfg.EventsDriver {
	case "kafka":
		kn := events.NewKafkaNotifier(cfg.InstanceID, cfg.KafkaBrokers...)
		poller := events.NewPoller(hub, cfg.InstanceID, zl, cfg.KafkaBrokers...)
		go poller.Run(ctx)
		log.Printf("Publishing events to Kafka at %v", cfg.KafkaBrokers)
		return events.Multi{hub, kn}, func() {
			poller.Close()
			kn.Close()
		}

	case "rabbitmq":
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		rn, err := events.NewRabbitNotifier(conn, cfg.InstanceID)
		if err != nil {
			log.Fatalf("Failed to set up RabbitMQ publisher: %v", err)
		}
		if err := events.StartRabbitSubscriber(ctx, conn, hub, cfg.InstanceID, zl); err != nil {
			log.Fatalf("Failed to subscribe to RabbitMQ: %v", err)
		}
		log.Printf("Publishing events to RabbitMQ")
		return events.Multi{hub, rn}, func() {
			rn.Close()
			conn.Close()
		}

	default:
		return hub, func() {}
	}
}
