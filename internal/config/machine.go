package config

import (
	"fmt"

	"github.com/abgdnv/vending/internal/coin"
)

// CoinConfig configures the ledger of one denomination. A zero capacity means coin.DefaultCapacity.
type CoinConfig struct {
	Capacity int `koanf:"capacity"`
	Stock    int `koanf:"stock"`
}

// ProductSeed is a product line created at startup when its code is not in the catalog yet.
type ProductSeed struct {
	Code      string `koanf:"code"`
	Name      string `koanf:"name"`
	Price     int64  `koanf:"price"`
	Available int32  `koanf:"available"`
}

type MachineConfig struct {
	Coins    map[string]CoinConfig `koanf:"coins"`
	Products []ProductSeed         `koanf:"products"`
}

func (c *MachineConfig) Validate() error {
	for name, cc := range c.Coins {
		if _, err := coin.ParseDenomination(name); err != nil {
			return fmt.Errorf("machine.coins: %w", err)
		}
		if cc.Capacity < 0 || cc.Stock < 0 {
			return fmt.Errorf("machine.coins.%s: capacity and stock must not be negative", name)
		}
		if cc.Stock > c.capacity(name) {
			return fmt.Errorf("machine.coins.%s: stock %d exceeds capacity %d", name, cc.Stock, c.capacity(name))
		}
	}
	seen := make(map[string]bool, len(c.Products))
	for _, p := range c.Products {
		if p.Code == "" || p.Name == "" {
			return fmt.Errorf("machine.products: code and name are required")
		}
		if p.Price <= 0 {
			return fmt.Errorf("machine.products.%s: price must be positive", p.Code)
		}
		if p.Available < 0 {
			return fmt.Errorf("machine.products.%s: available must not be negative", p.Code)
		}
		if seen[p.Code] {
			return fmt.Errorf("machine.products.%s: duplicate code", p.Code)
		}
		seen[p.Code] = true
	}
	return nil
}

func (c *MachineConfig) capacity(name string) int {
	if cc, ok := c.Coins[name]; ok && cc.Capacity > 0 {
		return cc.Capacity
	}
	return coin.DefaultCapacity
}

// LedgerSpecs returns the canonical coinage with the configured capacity and stock of each denomination.
func (c *MachineConfig) LedgerSpecs() []coin.LedgerSpec {
	specs := coin.DefaultSpecs()
	for i := range specs {
		name := specs[i].Denomination.String()
		specs[i].Capacity = c.capacity(name)
		specs[i].Stock = c.Coins[name].Stock
	}
	return specs
}
