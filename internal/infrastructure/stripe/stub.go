package stripe

import (
	"context"
	"fmt"
	"sync"

	"shopd/internal/application/checkout"
)

// StubGateway fakes the payment processor for local development. Every
// session it creates reports itself complete and paid on retrieval.
type StubGateway struct {
	mu       sync.Mutex
	sessions map[string]bool
	counter  int
}

func NewStubGateway() *StubGateway {
	return &StubGateway{sessions: make(map[string]bool)}
}

func (g *StubGateway) CreateSession(ctx context.Context, items []checkout.SessionLineItem, successURL, cancelURL string) (*checkout.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter++
	id := fmt.Sprintf("cs_stub_%d", g.counter)
	g.sessions[id] = true
	return &checkout.Session{ID: id, URL: successURL + "?session_id=" + id}, nil
}

func (g *StubGateway) RetrieveSession(ctx context.Context, sessionID string) (*checkout.SessionState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.sessions[sessionID] {
		return nil, fmt.Errorf("stub gateway: unknown session %q", sessionID)
	}
	return &checkout.SessionState{ID: sessionID, Status: "complete", PaymentStatus: "paid"}, nil
}
