package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"

	appcart "shopd/internal/application/cart"
	"shopd/internal/application/pricing"
	domcart "shopd/internal/domain/cart"
	"shopd/internal/domain/order"
	"shopd/internal/domain/outbox"
	"shopd/internal/domain/payment"
	"shopd/internal/domain/product"
	"shopd/internal/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart             = errors.New("checkout: cart is empty")
	ErrGatewayFailure        = errors.New("checkout: payment gateway failure")
	ErrInternalInconsistency = errors.New("checkout: order data is inconsistent")
)

const tracerName = "shopd.checkout"

// PricingConfig carries the pricing knobs applied to every checkout.
type PricingConfig struct {
	ShippingFee     float64
	TaxRate         float64
	DiscountPercent float64
}

// Config wires the orchestrator's fixed parameters.
type Config struct {
	SuccessURL        string
	CancelURL         string
	Pricing           PricingConfig
	LowStockThreshold int
	PaymentMethod     string
}

// Service drives the cart-to-order-to-payment sequence: initiate opens a
// gateway session and persists the order bundle atomically; confirm applies
// the post-payment unit (payment completed, order in_process, stock
// decremented, cart cleared) inside one transaction.
type Service struct {
	store    order.Store
	payments payment.Repository
	products product.Repository
	carts    *appcart.Service
	gateway  Gateway
	ids      IDGenerator
	bus      outbox.Publisher
	cfg      Config

	// publishFailures counts notification events that could not be enqueued;
	// those are logged and counted, never surfaced to the buyer.
	publishFailures *prometheus.CounterVec
}

func NewService(
	store order.Store,
	payments payment.Repository,
	products product.Repository,
	carts *appcart.Service,
	gateway Gateway,
	ids IDGenerator,
	bus outbox.Publisher,
	cfg Config,
	publishFailures *prometheus.CounterVec,
) *Service {
	if cfg.PaymentMethod == "" {
		cfg.PaymentMethod = "stripe"
	}
	return &Service{
		store:           store,
		payments:        payments,
		products:        products,
		carts:           carts,
		gateway:         gateway,
		ids:             ids,
		bus:             bus,
		cfg:             cfg,
		publishFailures: publishFailures,
	}
}

type InitiateResult struct {
	OrderID   string
	SessionID string
	URL       string
	Total     float64
}

// Initiate opens a payment session for the user's cart and persists
// Order + OrderItems + Payment in a single transaction. The two
// notifications are emitted only after the transaction committed and their
// failure never fails the checkout.
func (s *Service) Initiate(ctx context.Context, userID string) (_ *InitiateResult, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Checkout.Initiate",
		trace.WithAttributes(attribute.String("user_id", userID)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	logger := logging.FromContext(ctx).With(zap.String("component", "checkout_service"))

	identity := domcart.UserIdentity(userID)
	views, err := s.carts.ListItems(ctx, identity)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrEmptyCart
	}

	totals := pricing.CalculateTotal(pricingLines(views),
		s.cfg.Pricing.ShippingFee, s.cfg.Pricing.TaxRate, s.cfg.Pricing.DiscountPercent)

	session, err := s.gateway.CreateSession(ctx, gatewayItems(views), s.cfg.SuccessURL, s.cfg.CancelURL)
	if err != nil {
		logger.Error("gateway_session_failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGatewayFailure, err)
	}
	span.SetAttributes(attribute.String("gateway.session_id", session.ID))

	entity, err := order.New(s.ids.NewID(), userID, totals.Total, session.ID)
	if err != nil {
		return nil, err
	}

	items := make([]*order.Item, 0, len(views))
	for _, v := range views {
		price := 0.0
		if v.Product != nil {
			price = v.Product.Price
		}
		item, ierr := order.NewItem(s.ids.NewID(), entity.ID, v.ProductID, price, v.Quantity)
		if ierr != nil {
			return nil, ierr
		}
		items = append(items, item)
	}

	pay, err := payment.New(s.ids.NewID(), entity.ID, s.cfg.PaymentMethod, session.ID)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateCheckout(ctx, entity, items, pay); err != nil {
		logger.Error("checkout_persist_failed", zap.String("order_id", entity.ID), zap.Error(err))
		return nil, fmt.Errorf("checkout: persist: %w", err)
	}

	s.publish(ctx, order.NewOrderCreatedEvent(entity))
	s.publish(ctx, order.NewOrderPlacedEvent(entity))

	logger.Info("checkout_initiated",
		zap.String("order_id", entity.ID),
		zap.String("session_id", session.ID),
		zap.Float64("total", totals.Total),
		zap.Int("lines", len(items)),
	)

	return &InitiateResult{
		OrderID:   entity.ID,
		SessionID: session.ID,
		URL:       session.URL,
		Total:     totals.Total,
	}, nil
}

type ConfirmResult struct {
	OrderID string
	Status  order.Status
}

// Confirm finalizes the order behind a gateway session: payment completed,
// order in_process, stock decremented by each order item's captured quantity
// and the buyer's cart cleared, all in one transaction. Confirming an order
// that is already past pending is an idempotent no-op.
func (s *Service) Confirm(ctx context.Context, sessionID string) (_ *ConfirmResult, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Checkout.Confirm",
		trace.WithAttributes(attribute.String("gateway.session_id", sessionID)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	logger := logging.FromContext(ctx).With(zap.String("component", "checkout_service"))

	entity, err := s.store.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.gateway.RetrieveSession(ctx, sessionID); err != nil {
		logger.Error("gateway_session_retrieve_failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGatewayFailure, err)
	}

	switch entity.Status {
	case order.StatusPending:
		// fall through to the confirmation unit
	case order.StatusInProcess, order.StatusShipped:
		// Replayed success callback; the unit already ran.
		return &ConfirmResult{OrderID: entity.ID, Status: entity.Status}, nil
	default:
		return nil, order.ErrInvalidTransition
	}

	items, err := s.store.ListItems(ctx, entity.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		// An order without items cannot have come through initiate.
		return nil, fmt.Errorf("%w: order %s has no items", ErrInternalInconsistency, entity.ID)
	}

	decrements := make([]order.StockDecrement, 0, len(items))
	for _, item := range items {
		decrements = append(decrements, order.StockDecrement{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	identity := domcart.UserIdentity(entity.UserID)
	if err := s.store.ApplyConfirm(ctx, order.ConfirmUpdate{
		OrderID:       entity.ID,
		Decrements:    decrements,
		ClearIdentity: identity,
	}); err != nil {
		logger.Error("checkout_confirm_failed", zap.String("order_id", entity.ID), zap.Error(err))
		return nil, err
	}
	s.carts.Invalidate(ctx, identity)

	s.emitLowStock(ctx, decrements)

	logger.Info("checkout_confirmed",
		zap.String("order_id", entity.ID),
		zap.Int("items", len(items)),
	)

	return &ConfirmResult{OrderID: entity.ID, Status: order.StatusInProcess}, nil
}

// Cancel transitions an order to cancelled; terminal states are reported
// back as outcomes rather than errors.
func (s *Service) Cancel(ctx context.Context, orderID string) (order.CancelOutcome, error) {
	entity, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return 0, err
	}

	outcome := entity.Cancel()
	if outcome != order.CancelApplied {
		return outcome, nil
	}

	if err := s.store.UpdateStatus(ctx, entity.ID, entity.Status); err != nil {
		return 0, fmt.Errorf("checkout: cancel: %w", err)
	}

	logging.FromContext(ctx).Info("order_cancelled", zap.String("order_id", orderID))
	return order.CancelApplied, nil
}

// SetStatus applies an administrative status override; anything outside the
// known status set fails with order.ErrInvalidStatus.
func (s *Service) SetStatus(ctx context.Context, orderID, status string) (*order.Order, error) {
	parsed, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	entity, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := entity.SetStatus(parsed); err != nil {
		return nil, err
	}
	if err := s.store.UpdateStatus(ctx, entity.ID, entity.Status); err != nil {
		return nil, fmt.Errorf("checkout: set status: %w", err)
	}

	logging.FromContext(ctx).Info("order_status_overridden",
		zap.String("order_id", orderID),
		zap.String("status", status),
	)
	return entity, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	return s.store.FindByID(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, page, perPage int) ([]*order.Order, int, error) {
	return s.store.ListOrders(ctx, page, perPage)
}

func (s *Service) ListPayments(ctx context.Context, page, perPage int) ([]*payment.Payment, int, error) {
	return s.payments.ListPayments(ctx, page, perPage)
}

func (s *Service) publish(ctx context.Context, e outbox.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
		if s.publishFailures != nil {
			s.publishFailures.WithLabelValues(e.EventName()).Inc()
		}
	}
}

func (s *Service) emitLowStock(ctx context.Context, decrements []order.StockDecrement) {
	if s.cfg.LowStockThreshold <= 0 {
		return
	}
	for _, d := range decrements {
		p, err := s.products.Get(ctx, d.ProductID)
		if err != nil {
			continue
		}
		if p.Stock < s.cfg.LowStockThreshold {
			s.publish(ctx, order.StockLowEvent{
				ProductID:  p.ID,
				Name:       p.Name,
				Stock:      p.Stock,
				OccurredAt: p.UpdatedAt,
			})
		}
	}
}

func pricingLines(views []appcart.View) []pricing.Line {
	lines := make([]pricing.Line, 0, len(views))
	for _, v := range views {
		price := 0.0
		if v.Product != nil {
			price = v.Product.Price
		}
		lines = append(lines, pricing.Line{UnitPrice: price, Quantity: v.Quantity})
	}
	return lines
}

func gatewayItems(views []appcart.View) []SessionLineItem {
	items := make([]SessionLineItem, 0, len(views))
	for _, v := range views {
		name := v.ProductID
		price := 0.0
		if v.Product != nil {
			name = v.Product.Name
			price = v.Product.Price
		}
		items = append(items, SessionLineItem{
			Name:       name,
			UnitAmount: int64(math.Round(price * 100)),
			Quantity:   v.Quantity,
		})
	}
	return items
}
