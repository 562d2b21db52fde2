package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/admin"
	"github.com/iliyamo/stickerverse/internal/ai"
	"github.com/iliyamo/stickerverse/internal/authz"
	"github.com/iliyamo/stickerverse/internal/cart"
	"github.com/iliyamo/stickerverse/internal/config"
	"github.com/iliyamo/stickerverse/internal/database"
	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/handler"
	"github.com/iliyamo/stickerverse/internal/identity"
	"github.com/iliyamo/stickerverse/internal/logging"
	"github.com/iliyamo/stickerverse/internal/middleware"
	"github.com/iliyamo/stickerverse/internal/queue"
	"github.com/iliyamo/stickerverse/internal/repository"
	"github.com/iliyamo/stickerverse/internal/router"
)

func main() {
	cfg := config.Load()
	verbose, _ := strconv.ParseBool(os.Getenv("LOG_VERBOSE"))
	log, err := logging.New(cfg.Env, verbose)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ----- storage -----
	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	store := docstore.NewSQLStore(db)

	users := repository.NewUserRepo(store)
	products := repository.NewProductRepo(store)
	orders := repository.NewOrderRepo(store)
	accounts := repository.NewAccountRepo(store)

	// ----- redis (optional) -----
	redisCfg := config.LoadRedisConfig()
	rdb := config.NewRedisClient(redisCfg)
	var sessions identity.SessionStore
	if rdb != nil {
		defer rdb.Close()
		sessions = identity.NewRedisSessionStore(rdb)
		log.Info("redis connected", zap.String("addr", redisCfg.Addr))
	} else {
		sessions = identity.NewMemorySessionStore()
		log.Warn("redis unreachable; sessions kept in memory, cache and rate limiting off", zap.String("addr", redisCfg.Addr))
	}

	// ----- identity and authorization -----
	provider := identity.NewProvider(accounts, sessions, identity.Options{
		Secret:     cfg.JWTSecret,
		TTL:        time.Duration(cfg.AccessTTLMin) * time.Minute,
		BcryptCost: cfg.BcryptCost,
		LocalAdmin: cfg.LocalAdmin,
	}, log.Named("identity"))
	az := authz.New(provider, users, cfg.LocalAdmin.AllowWrites, log.Named("authz"))

	// ----- audit trail -----
	var events queue.Publisher = queue.NopPublisher{}
	if cfg.Audit.URL != "" {
		events = queue.NewAMQPPublisher(cfg.Audit.URL, cfg.Audit.Queue, log.Named("audit"))
		consumer := queue.NewAuditConsumer(cfg.Audit.URL, cfg.Audit.Queue, cfg.Audit.LogPath, log.Named("audit"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}
	adminSvc := admin.NewService(az, products, users, events, log.Named("admin"))

	// ----- AI helpers -----
	var gen ai.Generator = ai.Unavailable{}
	if cfg.AI.APIKey != "" {
		g, err := ai.NewGenAIGenerator(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Warn("AI client unavailable; helpers answer with defaults", zap.Error(err))
		} else {
			gen = g
		}
	}
	resolution := ai.NewResolutionChecker(gen, cfg.AI.Timeout, log.Named("ai"))
	recommender := ai.NewRecommender(gen, cfg.AI.Timeout, log.Named("ai"))

	// ----- carts -----
	carts := cart.NewRegistry(cfg.Cart.RecommendDebounce, recommender.Recommend, log.Named("cart"))
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		carts.RunSweeper(ctx, time.Minute, cfg.Cart.IdleTTL)
	}()

	// ----- HTTP -----
	cacheCfg := config.LoadCacheConfig()
	var purge func(context.Context) error
	if cacheCfg.Enabled && rdb != nil {
		purge = func(ctx context.Context) error {
			_, err := middleware.PurgeCache(ctx, rdb, cacheCfg.Prefix)
			return err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log.Named("http")))
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, provider, log.Named("ratelimit")))

	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(provider, users, carts, log), provider)
	router.RegisterPublic(e, handler.NewCatalogHandler(products, log), middleware.NewRedisCache(cacheCfg, rdb, log.Named("cache")))
	router.RegisterAI(e, handler.NewAIHandler(resolution, recommender, log))
	router.RegisterCart(e, handler.NewCartHandler(carts, products, log), provider)
	router.RegisterAccount(e, handler.NewAccountHandler(store, log), provider)
	router.RegisterAdmin(e, handler.NewAdminHandler(adminSvc, users, orders, purge, log), az)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stop()
		<-sweeperDone
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = e.Shutdown(shutdownCtx)
	<-sweeperDone
	return err
}
