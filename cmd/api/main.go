package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/campus-ticket-exchange/internal/adapters/crdb"
	"github.com/robertarktes/campus-ticket-exchange/internal/adapters/memory"
	mongoadapter "github.com/robertarktes/campus-ticket-exchange/internal/adapters/mongo"
	"github.com/robertarktes/campus-ticket-exchange/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/campus-ticket-exchange/internal/adapters/redis"
	"github.com/robertarktes/campus-ticket-exchange/internal/config"
	httphandler "github.com/robertarktes/campus-ticket-exchange/internal/http"
	"github.com/robertarktes/campus-ticket-exchange/internal/idempotency"
	"github.com/robertarktes/campus-ticket-exchange/internal/marketplace"
	"github.com/robertarktes/campus-ticket-exchange/internal/notify"
	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
	"github.com/robertarktes/campus-ticket-exchange/internal/rateLimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "campus-ticket-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLoggerWithLevel(cfg.LogLevel)
	ready := map[string]httphandler.Pinger{}

	var (
		listings marketplace.ListingStore
		offers   marketplace.OfferStore
	)
	switch cfg.StorageDriver {
	case config.StorageCRDB:
		pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
		if err != nil {
			log.Fatalf("failed to connect to crdb: %v", err)
		}
		defer pool.Close()
		repo := crdb.NewRepository(pool)
		if err := repo.Migrate(context.Background()); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		listings, offers = repo, repo
		ready["crdb"] = repo
	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		listings, offers = store, store
	}

	var opts []marketplace.Option
	opts = append(opts, marketplace.WithAllowedDomains(cfg.AllowedDomains))

	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())
		audit := mongoadapter.NewAuditLogger(mongoClient.Database("campus_tickets"), logger)
		if err := audit.EnsureIndexes(context.Background()); err != nil {
			logger.Warn("audit index: ", err)
		}
		opts = append(opts, marketplace.WithAuditor(audit))
		ready["mongo"] = pingFunc(func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		})
	}

	var notifier marketplace.Notifier
	switch cfg.NotifyMode {
	case config.NotifyQueue:
		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer conn.Close()
		pub, err := rabbit.NewPublisher(conn)
		if err != nil {
			log.Fatalf("failed to create publisher: %v", err)
		}
		defer pub.Close()
		notifier = notify.NewQueueNotifier(pub)
		ready["rabbitmq"] = pingFunc(func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		})
	case config.NotifySMTP:
		sender, err := notify.NewMailSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			log.Fatalf("failed to create mail sender: %v", err)
		}
		notifier = sender
	default:
		notifier = notify.NewLogNotifier(logger)
	}

	routerOpts := httphandler.RouterOptions{RatePerMin: cfg.RateLimitPerMinute}
	if cfg.RedisAddr != "" {
		redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		redisCache := redisadapter.NewCache(redisClient)
		routerOpts.Limiter = rateLimit.NewRateLimiter(redisCache, logger)
		routerOpts.Idempotency = idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), cfg.IdempotencyTTL)
		ready["redis"] = redisCache
	}

	svc := marketplace.NewService(listings, offers, notifier, logger, opts...)
	handlers := httphandler.NewHandlers(svc, ready)
	r := httphandler.SetupRouter(handlers, logger, routerOpts)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
