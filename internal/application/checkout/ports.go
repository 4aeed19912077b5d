package checkout

import "context"

type IDGenerator interface {
	NewID() string
}

// SessionLineItem is one cart line as presented to the payment gateway.
type SessionLineItem struct {
	Name string
	// UnitAmount is the unit price in the currency's minor unit (cents).
	UnitAmount int64
	Quantity   int
}

// Session is an opened payment session: the reference we persist and the
// target the buyer is redirected to.
type Session struct {
	ID  string
	URL string
}

// SessionState is the gateway's view of a session at retrieval time.
type SessionState struct {
	ID            string
	Status        string
	PaymentStatus string
}

// Gateway is the external payment processor. Calls are synchronous and may
// fail for network reasons; callers wrap failures as gateway errors rather
// than letting them propagate.
type Gateway interface {
	CreateSession(ctx context.Context, items []SessionLineItem, successURL, cancelURL string) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionState, error)
}
