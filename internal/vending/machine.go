// Package vending sequences a customer session: product selection, coin insertion and the
// sale itself, on top of the change registry and the product catalog.
package vending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/vending/internal/coin"
	"github.com/abgdnv/vending/internal/platform/messaging"
	"github.com/abgdnv/vending/internal/platform/messaging/events"
	"github.com/abgdnv/vending/internal/platform/metrics"
	perrors "github.com/abgdnv/vending/internal/product/errors"
	"github.com/abgdnv/vending/internal/product/service"
	verrors "github.com/abgdnv/vending/internal/vending/errors"
	"github.com/google/uuid"
)

// Sale is the outcome of a successful Dispense.
type Sale struct {
	Product service.ProductDto `json:"product"`
	Paid    int                `json:"paid"`
	Change  []coin.Payout      `json:"change"`
}

// CoinLevel describes the stock of one denomination.
type CoinLevel struct {
	Denomination coin.Denomination `json:"denomination"`
	UnitValue    int               `json:"unit_value"`
	Available    int               `json:"available"`
	Capacity     int               `json:"capacity"`
}

// Machine is a single vending machine. All methods are safe for concurrent use;
// calls are serialized, since a session spans the whole machine.
type Machine struct {
	mu        sync.Mutex
	coins     *coin.Registry
	products  service.ProductService
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	selected string
}

// NewMachine creates a Machine. A nil publisher discards events.
func NewMachine(coins *coin.Registry, products service.ProductService, publisher messaging.Publisher, m *metrics.Metrics, logger *slog.Logger) *Machine {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Machine{
		coins:     coins,
		products:  products,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// SelectProduct chooses the product to buy. It can be called before or after inserting coins.
// Selecting an unknown code clears the selection.
func (m *Machine) SelectProduct(ctx context.Context, code string) (*service.ProductDto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.products.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			m.selected = ""
		}
		return nil, err
	}
	m.selected = p.Code
	return p, nil
}

// SelectedProduct returns the code of the selected product, if any.
func (m *Machine) SelectedProduct() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected, m.selected != ""
}

func (m *Machine) InsertCoin(d coin.Denomination) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.coins.InsertCoin(d); err != nil {
		return err
	}
	m.metrics.IncrementCoinsInserted(d.String())
	return nil
}

func (m *Machine) InsertedValue() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coins.InsertedTotalValue()
}

// ReturnInsertedCoins hands back the coins of the current session. The selection is kept.
func (m *Machine) ReturnInsertedCoins() []coin.Count {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.coins.ResetHeldCoins()
	return m.coins.ReturnInsertedCoins()
}

// MoneyRequired returns the price of the selected product minus the inserted value.
// A negative result is the change due. It is 0 when nothing is selected.
func (m *Machine) MoneyRequired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected == "" {
		return 0, nil
	}
	p, err := m.products.FindByCode(ctx, m.selected)
	if err != nil {
		return 0, err
	}
	return int(p.Price) - m.coins.InsertedTotalValue(), nil
}

// ProductAvailable reports whether the selected product has items left.
// found is false when nothing is selected or the product is gone from the catalog.
func (m *Machine) ProductAvailable(ctx context.Context) (available, found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected == "" {
		return false, false
	}
	p, err := m.products.FindByCode(ctx, m.selected)
	if err != nil {
		return false, false
	}
	return p.Available > 0, true
}

// ProductsAvailable lists the products with items left.
func (m *Machine) ProductsAvailable(ctx context.Context) ([]service.ProductDto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products.FindAvailable(ctx)
}

// Dispense sells the selected product, pays out the change and keeps the inserted coins.
// When the sale is refused the coins stay inserted and the selection is kept.
func (m *Machine) Dispense(ctx context.Context) (*Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected == "" {
		return nil, verrors.ErrNoProductSelected
	}
	p, err := m.products.FindByCode(ctx, m.selected)
	if err != nil {
		return nil, err
	}

	paid := m.coins.InsertedTotalValue()
	change := paid - int(p.Price)
	if change < 0 {
		return nil, fmt.Errorf("%w: %d more required", verrors.ErrInsufficientFunds, -change)
	}
	if p.Available <= 0 {
		return nil, fmt.Errorf("%w: %s", verrors.ErrProductUnavailable, p.Code)
	}
	if !m.coins.CanPayExactChange(change) {
		m.coins.ResetHeldCoins()
		m.metrics.ExactChangeUnavailable.Inc()
		m.logger.WarnContext(ctx, "exact change unavailable", "product", p.Code, "change", change)
		return nil, fmt.Errorf("%w: %d", verrors.ErrExactChangeUnavailable, change)
	}

	dispensed, err := m.products.Dispense(ctx, p.Code)
	if err != nil {
		m.coins.ResetHeldCoins()
		if errors.Is(err, perrors.ErrOutOfStock) {
			return nil, fmt.Errorf("%w: %s", verrors.ErrProductUnavailable, p.Code)
		}
		return nil, err
	}

	overflowBefore := len(m.coins.Overflow())
	payouts, err := m.coins.DispenseChange()
	if err != nil {
		// the item has already left the machine
		m.coins.ResetHeldCoins()
		m.logger.ErrorContext(ctx, "failed to pay out change", "product", p.Code, "error", err)
		return nil, err
	}
	m.coins.ResetHeldCoins()
	m.selected = ""

	m.metrics.SalesCompleted.Inc()
	for _, po := range payouts {
		m.metrics.AddChangeDispensed(po.Denomination.String(), po.Count)
	}
	for _, c := range m.coins.Overflow()[overflowBefore:] {
		m.metrics.AddCoinsOverflowed(c.Denomination.String(), c.Count)
		m.logger.WarnContext(ctx, "coin tube full, coins diverted to overflow", "denomination", c.Denomination, "count", c.Count)
	}

	m.publish(ctx, events.SaleCompletedEvent{
		EventID:     uuid.New(),
		ProductCode: p.Code,
		Price:       p.Price,
		Paid:        paid,
		Change:      payouts,
		CompletedAt: m.now().UTC(),
	})
	m.logger.InfoContext(ctx, "product dispensed", "product", p.Code, "paid", paid, "change", change)

	return &Sale{Product: *dispensed, Paid: paid, Change: payouts}, nil
}

// AddCoins tops up the change stock of d.
func (m *Machine) AddCoins(d coin.Denomination, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coins.AddStock(d, n)
}

// DrainOverflow empties the overflow bucket and returns what it held.
func (m *Machine) DrainOverflow(ctx context.Context) []coin.Count {
	m.mu.Lock()
	defer m.mu.Unlock()

	drained := m.coins.DrainOverflow()
	if len(drained) > 0 {
		m.publish(ctx, events.OverflowDrainedEvent{
			EventID:   uuid.New(),
			Coins:     drained,
			DrainedAt: m.now().UTC(),
		})
	}
	return drained
}

// CoinLevels returns the stock of every denomination, in declaration order.
func (m *Machine) CoinLevels() []CoinLevel {
	m.mu.Lock()
	defer m.mu.Unlock()

	levels := make([]CoinLevel, 0, len(m.coins.Denominations()))
	for _, d := range m.coins.Denominations() {
		l, _ := m.coins.Ledger(d)
		levels = append(levels, CoinLevel{
			Denomination: d,
			UnitValue:    l.UnitValue(),
			Available:    l.Available(),
			Capacity:     l.Capacity(),
		})
	}
	return levels
}

// ChangeValue returns the value of all coins held as change.
func (m *Machine) ChangeValue() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coins.TotalValue()
}

func (m *Machine) CreateProduct(ctx context.Context, product service.ProductCreateDto) (*service.ProductDto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products.Create(ctx, product)
}

func (m *Machine) AddItems(ctx context.Context, code string, count int32) (*service.ProductDto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products.AddItems(ctx, code, count)
}

func (m *Machine) publish(ctx context.Context, event messaging.Event) {
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.ErrorContext(ctx, "failed to publish event", "subject", event.Subject(), "error", err)
	}
}
