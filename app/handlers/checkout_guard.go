package handlers

import "sync"

// CheckoutGuard tracks visitors whose cart is being handed off to the store.
// While a checkout runs, that visitor's cart cannot change: the checkout
// clears the cart when it finishes, and a line added meanwhile would be
// dropped without ever reaching the store.
type CheckoutGuard struct {
	visitors sync.Map
}

func NewCheckoutGuard() *CheckoutGuard {
	return &CheckoutGuard{}
}

// begin reports false when the visitor already has a checkout in flight.
func (g *CheckoutGuard) begin(visitorID string) bool {
	_, busy := g.visitors.LoadOrStore(visitorID, struct{}{})
	return !busy
}

func (g *CheckoutGuard) end(visitorID string) {
	g.visitors.Delete(visitorID)
}

func (g *CheckoutGuard) active(visitorID string) bool {
	_, busy := g.visitors.Load(visitorID)
	return busy
}
