package memory

import (
	"sync"

	"shopd/internal/domain/cart"
	"shopd/internal/domain/order"
	"shopd/internal/domain/payment"
	"shopd/internal/domain/product"
	"shopd/internal/domain/user"
)

// Store is the in-memory persistence backend. One mutex guards all tables,
// which makes every multi-row unit (checkout creation, confirmation) a single
// critical section: callers observe either all of a unit's writes or none.
// Mutating methods validate everything before touching state so a failure
// leaves no partial write behind.
type Store struct {
	mu sync.RWMutex

	lines     map[string]*cart.Line
	lineOrder []string

	products   map[string]*product.Product
	productIDs []string

	orders         map[string]*order.Order
	orderIDs       []string
	orderBySession map[string]string
	items          map[string][]*order.Item

	payments       map[string]*payment.Payment
	paymentIDs     []string
	paymentByOrder map[string]string

	users       map[string]*user.User
	userByEmail map[string]string
}

func NewStore() *Store {
	return &Store{
		lines:          make(map[string]*cart.Line),
		products:       make(map[string]*product.Product),
		orders:         make(map[string]*order.Order),
		orderBySession: make(map[string]string),
		items:          make(map[string][]*order.Item),
		payments:       make(map[string]*payment.Payment),
		paymentByOrder: make(map[string]string),
		users:          make(map[string]*user.User),
		userByEmail:    make(map[string]string),
	}
}

func cloneLine(l *cart.Line) *cart.Line {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

func cloneProduct(p *product.Product) *product.Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneOrder(o *order.Order) *order.Order {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

func cloneItem(i *order.Item) *order.Item {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func clonePayment(p *payment.Payment) *payment.Payment {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneUser(u *user.User) *user.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}
