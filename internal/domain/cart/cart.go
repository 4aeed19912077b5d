package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound             = errors.New("cart: line not found")
	ErrInvalidQuantity      = errors.New("cart: quantity must be greater than zero")
	ErrQuantityExceedsStock = errors.New("cart: requested quantity exceeds available stock")
	ErrIdentityRequired     = errors.New("cart: identity is required")
)

// Kind discriminates the two legal cart identities.
type Kind int

const (
	KindNone Kind = iota
	KindSession
	KindUser
)

// Identity is a tagged union: an anonymous session token or an authenticated
// user id, never both. The zero value means "no identity supplied".
type Identity struct {
	kind  Kind
	value string
}

func SessionIdentity(token string) Identity {
	if token == "" {
		return Identity{}
	}
	return Identity{kind: KindSession, value: token}
}

func UserIdentity(userID string) Identity {
	if userID == "" {
		return Identity{}
	}
	return Identity{kind: KindUser, value: userID}
}

func (i Identity) Kind() Kind      { return i.kind }
func (i Identity) IsZero() bool    { return i.kind == KindNone }
func (i Identity) IsSession() bool { return i.kind == KindSession }
func (i Identity) IsUser() bool    { return i.kind == KindUser }

// SessionToken returns the session token, or "" for user identities.
func (i Identity) SessionToken() string {
	if i.kind != KindSession {
		return ""
	}
	return i.value
}

// UserID returns the user id, or "" for session identities.
func (i Identity) UserID() string {
	if i.kind != KindUser {
		return ""
	}
	return i.value
}

// Key returns a stable string key for maps and caches.
func (i Identity) Key() string {
	switch i.kind {
	case KindSession:
		return "session:" + i.value
	case KindUser:
		return "user:" + i.value
	default:
		return ""
	}
}

// Line is one (identity, product, quantity) record.
type Line struct {
	ID        string
	Identity  Identity
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewLine(id string, identity Identity, productID string, quantity int) (*Line, error) {
	if identity.IsZero() {
		return nil, ErrIdentityRequired
	}
	if productID == "" {
		return nil, errors.New("cart: product id is required")
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &Line{
		ID:        id,
		Identity:  identity,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
