package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/vending/internal/coin"
	"github.com/abgdnv/vending/internal/platform/messaging"
	"github.com/google/uuid"
)

type SaleCompletedEvent struct {
	EventID     uuid.UUID     `json:"event_id"`
	ProductCode string        `json:"product_code"`
	Price       int64         `json:"price"`
	Paid        int           `json:"paid"`
	Change      []coin.Payout `json:"change"`
	CompletedAt time.Time     `json:"completed_at"`
}

func (e SaleCompletedEvent) Subject() string {
	return messaging.SaleCompletedSubject
}

func (e SaleCompletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type OverflowDrainedEvent struct {
	EventID   uuid.UUID    `json:"event_id"`
	Coins     []coin.Count `json:"coins"`
	DrainedAt time.Time    `json:"drained_at"`
}

func (e OverflowDrainedEvent) Subject() string {
	return messaging.OverflowDrainedSubject
}

func (e OverflowDrainedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
