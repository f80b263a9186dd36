// Package app contains the application setup for the vending machine.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/vending/internal/coin"
	"github.com/abgdnv/vending/internal/config"
	"github.com/abgdnv/vending/internal/platform/messaging"
	"github.com/abgdnv/vending/internal/platform/metrics"
	"github.com/abgdnv/vending/internal/platform/server"
	perrors "github.com/abgdnv/vending/internal/product/errors"
	"github.com/abgdnv/vending/internal/product/service"
	"github.com/abgdnv/vending/internal/product/store"
	"github.com/abgdnv/vending/internal/transport/rest"
	"github.com/abgdnv/vending/internal/vending"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type Dependencies struct {
	Machine  *vending.Machine
	Gatherer prometheus.Gatherer
	Health   *health.Server
	Logger   *slog.Logger
}

// SetupDependencies builds the machine from its configuration: the change registry, the catalog
// seeded with the configured products, metrics and the event publisher.
func SetupDependencies(ctx context.Context, cfg *config.MachineConfig, productStore store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) (*Dependencies, error) {
	registry, err := coin.NewRegistry(cfg.LedgerSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to create coin registry: %w", err)
	}

	pService := service.NewService(productStore)
	if err := SeedProducts(ctx, pService, cfg.Products, logger); err != nil {
		return nil, err
	}

	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	return &Dependencies{
		Machine:  vending.NewMachine(registry, pService, publisher, m, logger),
		Gatherer: promRegistry,
		Health:   health.NewServer(),
		Logger:   logger,
	}, nil
}

// SeedProducts creates the configured product lines. Lines already in the catalog are left alone.
func SeedProducts(ctx context.Context, products service.ProductService, seeds []config.ProductSeed, logger *slog.Logger) error {
	for _, s := range seeds {
		_, err := products.Create(ctx, service.ProductCreateDto{
			Code:      s.Code,
			Name:      s.Name,
			Price:     s.Price,
			Available: s.Available,
		})
		if errors.Is(err, perrors.ErrProductExists) {
			logger.DebugContext(ctx, "Product already in catalog, not seeded", "code", s.Code)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", s.Code, err)
		}
		logger.InfoContext(ctx, "Product seeded", "code", s.Code, "available", s.Available)
	}
	return nil
}

// SetupHttpHandler initializes the router with the machine API and the metrics endpoint.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the vending machine.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.Machine, deps.Logger)
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
}

// SetupHttpServer creates and configures an HTTP server for the vending machine.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

// SetupGrpcServer initializes the gRPC server, which serves health checks for orchestrator probes.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(reflectionEnabled, server.HealthRegistration(deps.Health))
}
