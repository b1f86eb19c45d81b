package cart

import "github.com/avelezquez/shopcart-backend/pkg/db/models"

// RequestScope caches the resolved cart for the lifetime of a single request
// so chained lookups inside one request hit storage at most once. It is never
// shared across requests.
type RequestScope struct {
	ClientIP string

	cart *models.Cart
}

// NewRequestScope builds an empty scope carrying the caller's address.
func NewRequestScope(clientIP string) *RequestScope {
	return &RequestScope{ClientIP: clientIP}
}

func (s *RequestScope) clientIP() string {
	if s == nil {
		return ""
	}
	return s.ClientIP
}

// Cart returns the cart cached for this request, or nil.
func (s *RequestScope) Cart() *models.Cart {
	if s == nil {
		return nil
	}
	return s.cart
}

// Bind stores the resolved cart for later lookups within the same request.
func (s *RequestScope) Bind(cart *models.Cart) {
	if s == nil {
		return
	}
	s.cart = cart
}
