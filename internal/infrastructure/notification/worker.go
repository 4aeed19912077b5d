package notification

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"shopd/internal/domain/order"
	"shopd/internal/domain/outbox"
)

// Worker turns order lifecycle events into notifications.
type Worker struct {
	subscriber outbox.Subscriber
	notifier   Notifier
	log        *zap.Logger
	failures   *prometheus.CounterVec // notification_failures_total{event}
}

func NewWorker(subscriber outbox.Subscriber, notifier Notifier, logger *zap.Logger, failures *prometheus.CounterVec) *Worker {
	return &Worker{
		subscriber: subscriber,
		notifier:   notifier,
		log:        logger.With(zap.String("component", "notification-worker")),
		failures:   failures,
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.notifier == nil {
		return
	}
	w.subscriber.Subscribe(order.OrderCreatedEvent{}.EventName(), w.handleOrderCreated)
	w.subscriber.Subscribe(order.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
	w.subscriber.Subscribe(order.StockLowEvent{}.EventName(), w.handleStockLow)
}

func (w *Worker) handleOrderCreated(ctx context.Context, e outbox.Event) error {
	evt, ok := e.(order.OrderCreatedEvent)
	if !ok {
		return nil
	}

	subject := "New order received"
	body := fmt.Sprintf("Order %s placed for %.2f.", evt.OrderID, evt.TotalPrice)
	if err := w.notifier.Notify(ctx, AudienceAdmins, subject, body); err != nil {
		return w.fail(e.EventName(), evt.OrderID, err)
	}

	w.log.Info("order_created_notified", zap.String("order_id", evt.OrderID))
	return nil
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e outbox.Event) error {
	evt, ok := e.(order.OrderPlacedEvent)
	if !ok {
		return nil
	}

	subject := "Your order is confirmed"
	body := fmt.Sprintf("Thanks for your purchase. Order %s totals %.2f.", evt.OrderID, evt.TotalPrice)
	if err := w.notifier.Notify(ctx, AudienceUser, subject, body); err != nil {
		return w.fail(e.EventName(), evt.OrderID, err)
	}

	w.log.Info("order_placed_notified", zap.String("order_id", evt.OrderID))
	return nil
}

func (w *Worker) handleStockLow(ctx context.Context, e outbox.Event) error {
	evt, ok := e.(order.StockLowEvent)
	if !ok {
		return nil
	}

	subject := "Low stock alert"
	body := fmt.Sprintf("Product %s (%s) is down to %d units.", evt.Name, evt.ProductID, evt.Stock)
	if err := w.notifier.Notify(ctx, AudienceAdmins, subject, body); err != nil {
		return w.fail(e.EventName(), evt.ProductID, err)
	}

	w.log.Warn("stock_low_notified",
		zap.String("product_id", evt.ProductID),
		zap.Int("stock", evt.Stock),
	)
	return nil
}

func (w *Worker) fail(event, subjectID string, err error) error {
	if w.failures != nil {
		w.failures.WithLabelValues(event).Inc()
	}
	w.log.Warn("notification_failed",
		zap.String("event", event),
		zap.String("subject_id", subjectID),
		zap.Error(err),
	)
	return fmt.Errorf("notification worker: %s: %w", event, err)
}
