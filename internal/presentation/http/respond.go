package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"

	appauth "shopd/internal/application/auth"
	appcheckout "shopd/internal/application/checkout"
	"shopd/internal/domain/cart"
	"shopd/internal/domain/order"
	"shopd/internal/domain/payment"
	"shopd/internal/domain/product"
	"shopd/internal/domain/user"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// errorKind labels group domain errors into the response taxonomy.
const (
	kindValidationFailed      = "ValidationFailed"
	kindNotFound              = "NotFound"
	kindQuantityExceedsStock  = "QuantityExceedsStock"
	kindEmptyCart             = "EmptyCart"
	kindUnauthorized          = "Unauthorized"
	kindForbidden             = "Forbidden"
	kindGatewayFailure        = "GatewayFailure"
	kindInternalInconsistency = "InternalInconsistency"
	kindInternal              = "Internal"
)

func writeDomainError(w http.ResponseWriter, err error) {
	status, kind := classify(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		// Operator detail stays in the logs; the client gets the category.
		message = "something went wrong"
	}

	writeJSON(w, status, map[string]string{
		"message": message,
		"error":   kind,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrIdentityRequired),
		errors.Is(err, appauth.ErrValidation),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, kindValidationFailed
	case errors.Is(err, cart.ErrQuantityExceedsStock),
		errors.Is(err, product.ErrInsufficientStock):
		return http.StatusUnprocessableEntity, kindQuantityExceedsStock
	case errors.Is(err, appcheckout.ErrEmptyCart):
		return http.StatusBadRequest, kindEmptyCart
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound, kindNotFound
	case errors.Is(err, appauth.ErrInvalidCredentials):
		return http.StatusUnauthorized, kindUnauthorized
	case errors.Is(err, appcheckout.ErrGatewayFailure):
		return http.StatusInternalServerError, kindGatewayFailure
	case errors.Is(err, appcheckout.ErrInternalInconsistency):
		return http.StatusInternalServerError, kindInternalInconsistency
	default:
		return http.StatusInternalServerError, kindInternal
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
