package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgo/storefront-e2e/internal/catalog"
	"github.com/forgo/storefront-e2e/internal/config"
	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/repository"
	"github.com/forgo/storefront-e2e/internal/service"
)

// Harness is the wired seeding stack: store, repositories and services
type Harness struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	DB      *database.SurrealDB
	Seeder  *service.SeederService
	Keys    *service.KeyService
	logger  *slog.Logger
}

// New wires the repositories and services for cfg without connecting
func New(cfg *config.Config, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db := database.NewSurrealDB(cfg.Database.Connection())
	db.OnRetry(func(err error, next time.Duration) {
		logger.Warn("database not ready, retrying",
			slog.String("error", err.Error()),
			slog.Duration("next", next),
		)
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	keyRepo := repository.NewAuthKeyRepository(db)
	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	storeRepo := repository.NewFixtureStoreRepository(db)

	// Initialize services
	seeder := service.NewSeederService(service.SeederConfig{
		DB:         db,
		Users:      userRepo,
		Keys:       keyRepo,
		Products:   productRepo,
		Coupons:    couponRepo,
		Orders:     orderRepo,
		Store:      storeRepo,
		Logger:     logger.With(slog.String("component", "seeder")),
		SeedTag:    cfg.Seed.Tag,
		AllowReset: cfg.Seed.AllowReset,
		KeyTTL:     cfg.Seed.KeyTTL,
	})
	keys := service.NewKeyService(service.KeyServiceConfig{
		Keys:   keyRepo,
		Logger: logger.With(slog.String("component", "keys")),
	})

	return &Harness{
		Config:  cfg,
		Catalog: catalog.Default(),
		DB:      db,
		Seeder:  seeder,
		Keys:    keys,
		logger:  logger,
	}
}

// Connect opens the store and applies the schema
func (h *Harness) Connect(ctx context.Context) error {
	if err := h.Seeder.Connect(ctx); err != nil {
		return err
	}
	h.logger.Info("connected to database",
		slog.String("host", h.Config.Database.Host),
		slog.String("namespace", h.Config.Database.Namespace),
		slog.String("database", h.Config.Database.Database),
	)
	return nil
}

// SeedOptions adjusts one seeding pass
type SeedOptions struct {
	Reset  bool // truncate first; still requires E2E_RESET_DATABASE
	Filler *int // overrides SEED_FILLER_CUSTOMERS
}

// Setup connects and seeds the default catalog over the configured lanes.
// Any error means the suite must not run.
func (h *Harness) Setup(ctx context.Context, opts SeedOptions) (*service.SeedReport, error) {
	lanes, err := h.Config.Browser.LaneSet()
	if err != nil {
		return nil, err
	}
	filler := h.Config.Seed.FillerCustomers
	if opts.Filler != nil {
		filler = *opts.Filler
	}
	set, err := catalog.BuildFixtureSet(h.Catalog, lanes, catalog.WithFiller(filler, h.Config.Seed.FakerSeed))
	if err != nil {
		return nil, fmt.Errorf("build fixture set: %w", err)
	}

	if err := h.Connect(ctx); err != nil {
		return nil, err
	}

	if opts.Reset {
		if err := h.Seeder.ResetDatabase(ctx); err != nil {
			return nil, err
		}
	}
	return h.Seeder.SeedAll(ctx, set)
}

// Teardown removes seeded records when cleanup is configured, then closes
// the connection. The returned result is nil when cleanup is off.
func (h *Harness) Teardown(ctx context.Context) (*service.CleanupResult, error) {
	defer func() { _ = h.Seeder.Disconnect() }()

	if !h.Config.Seed.Cleanup {
		h.logger.Info("leaving seeded data in place", slog.String("seed_tag", h.Seeder.SeedTag()))
		return nil, nil
	}
	return h.Seeder.Teardown(ctx)
}

// Close releases the connection
func (h *Harness) Close() error {
	return h.Seeder.Disconnect()
}
