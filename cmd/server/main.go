package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/time/rate"

	httpapi "landrent-backend/internal/api/http"
	"landrent-backend/internal/clock"
	"landrent-backend/internal/config"
	"landrent-backend/internal/domain"
	"landrent-backend/internal/jobs"
	"landrent-backend/internal/ledger"
	"landrent-backend/internal/logger"
	"landrent-backend/internal/registry"
	"landrent-backend/internal/repository"
	"landrent-backend/internal/repository/memory"
	"landrent-backend/internal/repository/postgres"
	"landrent-backend/internal/scheduler"
	"landrent-backend/internal/security"
	"landrent-backend/internal/service"
)

// repositories is the backend-independent view of a store.
type repositories struct {
	states     repository.AssetStateRepository
	containers repository.ContainerRepository
	tiers      repository.HostingTierRepository
	journal    repository.SettlementRepository
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Land Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "storage", cfg.Storage.Type)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Repositories
	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	// Initialize ledger and collections from genesis
	funds := ledger.New()
	for _, b := range cfg.Genesis.Balances {
		funds.Mint(b.Address, b.Amount)
	}
	reg := registry.New()
	lands, err := seedCollections(reg, cfg)
	if err != nil {
		log.Fatalf("Failed to seed collections: %v", err)
	}

	// Initialize Services
	clk := clock.NewSystemClock()
	engine := service.NewRentalEngine(service.RentalConfig{
		OffererGraceDelay: cfg.Renting.OffererGraceDelay,
		ValidityWindow:    cfg.Renting.OfferValidityWindow,
		PeriodLength:      cfg.Renting.PeriodLength,
		FeePercentage:     *cfg.Renting.FeePercentage,
		FeeReceiver:       cfg.Renting.FeeReceiver,
		HostingAddress:    cfg.Renting.HostingAddress,
		MinMonthlyPrice:   cfg.Renting.CollectionMinMonthlyPrice,
	}, repos.states, repos.journal, funds.Account(cfg.Renting.CustodyAddress), cfg.Renting.CustodyAddress, reg, clk)

	containers := service.NewContainerIndex(service.ContainerConfig{
		Address:        cfg.Container.CollectionAddress,
		LandCollection: cfg.Container.LandCollectionAddress,
		MaxMembers:     cfg.Container.MaxMembers,
	}, repos.containers, lands, engine, clk)
	engine.SetContainmentChecker(containers)
	reg.Register(cfg.Container.CollectionAddress, containers)

	hosting := service.NewHosting(service.HostingConfig{
		Address:      cfg.Renting.HostingAddress,
		Admin:        cfg.Renting.AdminAddress,
		FeeReceiver:  cfg.Renting.FeeReceiver,
		PeriodLength: cfg.Renting.PeriodLength,
	}, repos.tiers, repos.journal, funds.Account(cfg.Renting.HostingAddress), reg, engine, clk)

	seq := service.NewSequencer()

	// Initialize scheduled jobs
	jobRunner := jobs.NewJobRunner(engine, seq, cfg)
	sched, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// Set up HTTP server
	handler := httpapi.NewHandler(httpapi.Services{
		Rental:     engine,
		NoRent:     engine,
		Containers: containers,
		Hosting:    hosting,
		Assets:     reg,
		Funds:      funds,
		Approvals:  reg,
		Sequencer:  seq,
	})
	router := httpapi.NewRouter(
		handler,
		httpapi.NewAuthMiddleware(tokenManager),
		httpapi.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst),
	)

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", "error", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repositories, func(), error) {
	if cfg.Storage.Type == config.StorageMemory {
		logger.Info("Using in-memory storage")
		s := memory.NewStore()
		return repositories{
			states:     s.AssetStateRepository,
			containers: s.ContainerRepository,
			tiers:      s.HostingTierRepository,
			journal:    s.SettlementRepository,
		}, func() {}, nil
	}

	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return repositories{}, nil, err
	}

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		db.Close()
		return repositories{}, nil, err
	}
	logger.Info("Database connection established")

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		db.Close()
		return repositories{}, nil, err
	}

	s := postgres.NewStore(db)
	return repositories{
		states:     s.AssetStateRepository,
		containers: s.ContainerRepository,
		tiers:      s.HostingTierRepository,
		journal:    s.SettlementRepository,
	}, func() { db.Close() }, nil
}

// seedCollections registers one NFT collection per genesis collection and
// returns the land collection the container index wraps.
func seedCollections(reg *registry.Registry, cfg *config.Config) (*registry.NFTCollection, error) {
	collections := map[domain.Address]*registry.NFTCollection{}
	get := func(addr domain.Address) *registry.NFTCollection {
		c, ok := collections[addr]
		if !ok {
			c = registry.NewNFTCollection(addr)
			collections[addr] = c
			reg.Register(addr, c)
		}
		return c
	}

	lands := get(cfg.Container.LandCollectionAddress)
	for _, a := range cfg.Genesis.Assets {
		if a.Collection == cfg.Container.CollectionAddress {
			return nil, fmt.Errorf("genesis asset %d: containers cannot be minted", a.TokenID)
		}
		if err := get(a.Collection).Mint(a.Owner, a.TokenID); err != nil {
			return nil, fmt.Errorf("genesis asset %s/%d: %w", a.Collection, a.TokenID, err)
		}
	}
	logger.Info("Collections seeded", "collections", len(collections), "assets", len(cfg.Genesis.Assets))
	return lands, nil
}
