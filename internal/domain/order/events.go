package order

import "time"

// OrderCreatedEvent is emitted after a checkout is initiated, for the
// administrative audience.
type OrderCreatedEvent struct {
	OrderID    string
	UserID     string
	TotalPrice float64
	OccurredAt time.Time
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderPlacedEvent is emitted after a checkout is initiated, addressed to the
// purchasing user.
type OrderPlacedEvent struct {
	OrderID    string
	UserID     string
	TotalPrice float64
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		OccurredAt: time.Now().UTC(),
	}
}

// StockLowEvent is emitted when a confirmed checkout leaves a product below
// the low-stock threshold.
type StockLowEvent struct {
	ProductID  string
	Name       string
	Stock      int
	OccurredAt time.Time
}

func (StockLowEvent) EventName() string { return "stock.low" }
