package httppresentation

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	appauth "shopd/internal/application/auth"
	appcart "shopd/internal/application/cart"
	appcheckout "shopd/internal/application/checkout"
	"shopd/internal/application/pricing"
	domcart "shopd/internal/domain/cart"
	"shopd/internal/domain/order"
	"shopd/internal/domain/product"
	"shopd/internal/rbac"
)

const headerSessionID = "X-Session-ID"

type Handler struct {
	carts     *appcart.Service
	checkouts *appcheckout.Service
	auth      *appauth.Service
	products  product.Repository
	policy    *rbac.Policy
	pricing   appcheckout.PricingConfig
	log       *zap.Logger
}

func NewHandler(
	carts *appcart.Service,
	checkouts *appcheckout.Service,
	auth *appauth.Service,
	products product.Repository,
	policy *rbac.Policy,
	pricingCfg appcheckout.PricingConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		carts:     carts,
		checkouts: checkouts,
		auth:      auth,
		products:  products,
		policy:    policy,
		pricing:   pricingCfg,
		log:       logger.With(zap.String("component", "http_server")),
	}
}

// RouterConfig carries the middleware collaborators the router wires in.
type RouterConfig struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Limiter  *ipLimiter
}

func NewRateLimiter(rps float64, burst int) *ipLimiter {
	return newIPLimiter(rps, burst)
}

func (h *Handler) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(withTrace)
	r.Use(withRequestLogger(h.log))
	if cfg.Requests != nil && cfg.Duration != nil {
		r.Use(withMetrics(cfg.Requests, cfg.Duration))
	}
	if cfg.Limiter != nil {
		r.Use(withRateLimit(cfg.Limiter))
	}
	r.Use(withAuth(h.auth))

	r.Get("/health", h.handleHealth)

	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.requireUser(h.handleLogout))

	r.Get("/products", h.handleListProducts)

	r.Post("/cart/add", h.handleCartAdd)
	r.Post("/cart/update", h.handleCartUpdate)
	r.Post("/cart/clear", h.handleCartClear)
	r.Get("/cart/items", h.handleCartItems)
	r.Delete("/cart/remove/{id}", h.handleCartRemove)

	r.Post("/checkout", h.requireUser(h.handleCheckout))
	r.Get("/checkout/success", h.handleCheckoutSuccess)
	r.Get("/checkout/cancel", h.handleCheckoutCancel)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/orders", h.requirePermission("view", "orders", h.handleAdminListOrders))
		r.Get("/orders/{id}", h.requirePermission("view", "orders", h.handleAdminGetOrder))
		r.Delete("/orders/{id}", h.requirePermission("manage", "orders", h.handleAdminCancelOrder))
		r.Put("/orders/{id}/status", h.requirePermission("manage", "orders", h.handleAdminSetStatus))
		r.Get("/payments", h.requirePermission("view", "payments", h.handleAdminListPayments))
		r.Post("/products", h.requirePermission("manage", "products", h.handleAdminSaveProduct))
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

// requireUser rejects anonymous callers.
func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if userFromContext(r.Context()) == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"message": "authentication required",
				"error":   kindUnauthorized,
			})
			return
		}
		next(w, r)
	}
}

// requirePermission gates a route on the policy's verdict for the caller.
func (h *Handler) requirePermission(action, resource string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := userFromContext(r.Context())
		if u == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"message": "authentication required",
				"error":   kindUnauthorized,
			})
			return
		}
		if !h.policy.Authorize(rbac.SubjectFor(u), action, resource) {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"message": "permission denied",
				"error":   kindForbidden,
			})
			return
		}
		next(w, r)
	}
}

// identityFromRequest prefers the authenticated user and falls back to the
// anonymous session header. The zero identity means neither was supplied.
func identityFromRequest(r *http.Request) domcart.Identity {
	if u := userFromContext(r.Context()); u != nil {
		return domcart.UserIdentity(u.ID)
	}
	return domcart.SessionIdentity(r.Header.Get(headerSessionID))
}

type registerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	SessionID string `json:"session_id"`
}

type authResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	UserID  string   `json:"user_id"`
	Roles   []string `json:"roles"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, appauth.ErrValidation)
		return
	}

	result, err := h.auth.Register(r.Context(), appauth.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		SessionID: req.SessionID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message: "registered successfully",
		Token:   result.Token,
		UserID:  result.User.ID,
		Roles:   result.User.Roles,
	})
}

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	SessionID string `json:"session_id"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, appauth.ErrValidation)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password, req.SessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: "logged in successfully",
		Token:   result.Token,
		UserID:  result.User.ID,
		Roles:   result.User.Roles,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), u.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "logged out successfully")
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "ok",
		"products": products,
	})
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, domcart.ErrInvalidQuantity)
		return
	}

	identity, err := h.carts.AddItem(r.Context(), identityFromRequest(r), req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]string{"message": "item added to cart"}
	if identity.IsSession() {
		// Anonymous callers keep this token to address their cart.
		resp["session_id"] = identity.SessionToken()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, domcart.ErrInvalidQuantity)
		return
	}

	if err := h.carts.UpdateItem(r.Context(), identityFromRequest(r), req.ProductID, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "cart updated")
}

func (h *Handler) handleCartClear(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), identityFromRequest(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "cart cleared")
}

func (h *Handler) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "id")
	if err := h.carts.RemoveItem(r.Context(), lineID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "item removed from cart")
}

func (h *Handler) handleCartItems(w http.ResponseWriter, r *http.Request) {
	views, err := h.carts.ListItems(r.Context(), identityFromRequest(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	lines := make([]pricing.Line, 0, len(views))
	for _, v := range views {
		price := 0.0
		if v.Product != nil {
			price = v.Product.Price
		}
		lines = append(lines, pricing.Line{UnitPrice: price, Quantity: v.Quantity})
	}
	totals := pricing.CalculateTotal(lines, h.pricing.ShippingFee, h.pricing.TaxRate, h.pricing.DiscountPercent)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "ok",
		"items":   views,
		"totals":  totals,
	})
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())

	result, err := h.checkouts.Initiate(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "checkout session created",
		"order_id":   result.OrderID,
		"session_id": result.SessionID,
		"url":        result.URL,
		"total":      result.Total,
	})
}

func (h *Handler) handleCheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"message": "session_id is required",
			"error":   kindValidationFailed,
		})
		return
	}

	result, err := h.checkouts.Confirm(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "payment successful",
		"order_id": result.OrderID,
		"status":   result.Status,
	})
}

func (h *Handler) handleCheckoutCancel(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "payment cancelled")
}

func (h *Handler) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	orders, total, err := h.checkouts.ListOrders(r.Context(), page, perPage)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "ok",
		"orders":  orders,
		"total":   total,
	})
}

func (h *Handler) handleAdminGetOrder(w http.ResponseWriter, r *http.Request) {
	entity, err := h.checkouts.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "ok",
		"order":   entity,
	})
}

func (h *Handler) handleAdminCancelOrder(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.checkouts.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	switch outcome {
	case order.CancelApplied:
		writeMessage(w, http.StatusOK, "order cancelled successfully")
	case order.CancelAlreadyCancelled:
		writeMessage(w, http.StatusOK, "order already cancelled")
	case order.CancelAlreadyShipped:
		writeMessage(w, http.StatusUnprocessableEntity, "cannot cancel an order that has shipped")
	}
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleAdminSetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, order.ErrInvalidStatus)
		return
	}

	entity, err := h.checkouts.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "order status updated",
		"order":   entity,
	})
}

func (h *Handler) handleAdminListPayments(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	payments, total, err := h.checkouts.ListPayments(r.Context(), page, perPage)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "ok",
		"payments": payments,
		"total":    total,
	})
}

type saveProductRequest struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

func (h *Handler) handleAdminSaveProduct(w http.ResponseWriter, r *http.Request) {
	var req saveProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, product.ErrInvalidPrice)
		return
	}

	p, err := product.New(req.ID, req.Name, req.Price, req.Stock)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"message": err.Error(),
			"error":   kindValidationFailed,
		})
		return
	}

	if err := h.products.Save(r.Context(), p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "product saved",
		"product": p,
	})
}

func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
