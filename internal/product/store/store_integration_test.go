package store

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	perrors "github.com/abgdnv/vending/internal/product/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "VENDING_SKIP_INTEGRATION_TESTS"

// PgStoreSuite is a test suite for the PostgreSQL ProductStore implementation.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       ProductStore
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite starts a PostgreSQL container, applies the embedded migrations and creates the store.
func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 1. Start a PostgreSQL container and wait for it to be ready.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("vending"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	// 2. Get the connection string from the container
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 3. Create a new pgxpool instance and make sure the database answers
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")
	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 4. Database migration from the embedded migrations
	require.NoError(s.T(), Migrate(connStr), "Failed to apply migrations")
	// running it again is a no-op
	require.NoError(s.T(), Migrate(connStr), "Second migration run should be a no-op")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for PgStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *PgStoreSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest empties the products table before each test.
func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products")
	require.NoError(s.T(), err, "Failed to truncate products table")
}

// TestPgStoreIntegration runs the PgStore integration tests.
func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PgStoreSuite))
}

func (s *PgStoreSuite) createTestProduct(code, name string, price int64, available int32) *Product {
	s.T().Helper()
	product, err := s.store.Create(s.ctx, code, name, price, available)
	require.NoError(s.T(), err, "createTestProduct helper failed to create product")
	return product
}

func (s *PgStoreSuite) TestCreateAndFindByCode() {
	created := s.createTestProduct("155", "crisps", 74, 21)
	require.NotZero(s.T(), created.ID)

	fetched, err := s.store.FindByCode(s.ctx, "155")

	require.NoError(s.T(), err)
	assert.Equal(s.T(), *created, *fetched)
}

func (s *PgStoreSuite) TestCreate_DuplicateCode() {
	s.createTestProduct("a1", "crisps", 75, 15)

	_, err := s.store.Create(s.ctx, "a1", "peanuts", 99, 20)

	require.ErrorIs(s.T(), err, perrors.ErrProductExists)
}

func (s *PgStoreSuite) TestFindByCode_NotFound() {
	_, err := s.store.FindByCode(s.ctx, "zz")
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
}

func (s *PgStoreSuite) TestFindAll_OrderedByCode() {
	s.createTestProduct("c1", "chocolate", 125, 25)
	s.createTestProduct("a1", "crisps", 75, 15)
	s.createTestProduct("b1", "peanuts", 99, 20)

	products, err := s.store.FindAll(s.ctx)

	require.NoError(s.T(), err)
	require.Len(s.T(), products, 3)
	assert.Equal(s.T(), "a1", products[0].Code)
	assert.Equal(s.T(), "b1", products[1].Code)
	assert.Equal(s.T(), "c1", products[2].Code)
}

func (s *PgStoreSuite) TestAddItems() {
	s.createTestProduct("155", "crisps", 74, 0)

	updated, err := s.store.AddItems(s.ctx, "155", 21)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), int32(21), updated.Available)

	_, err = s.store.AddItems(s.ctx, "156", 1)
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
}

func (s *PgStoreSuite) TestDispense() {
	s.createTestProduct("144", "peanuts", 87, 1)

	updated, err := s.store.Dispense(s.ctx, "144")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int32(0), updated.Available)

	_, err = s.store.Dispense(s.ctx, "144")
	require.ErrorIs(s.T(), err, perrors.ErrOutOfStock)

	_, err = s.store.Dispense(s.ctx, "145")
	require.ErrorIs(s.T(), err, perrors.ErrProductNotFound)
}
