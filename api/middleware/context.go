package middleware

import (
	"context"

	cartsvc "github.com/avelezquez/shopcart-backend/internal/cart"
)

type contextKey string

const (
	ctxCartToken contextKey = "cart_token"
	ctxCartScope contextKey = "cart_scope"
)

// CartTokenFromContext returns the caller's identity token, or "".
func CartTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartToken).(string); ok {
		return v
	}
	return ""
}

// CartScopeFromContext returns the request-scoped cart cache, or nil.
func CartScopeFromContext(ctx context.Context) *cartsvc.RequestScope {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxCartScope).(*cartsvc.RequestScope); ok {
		return v
	}
	return nil
}

// WithCartToken injects the identity token into the context.
func WithCartToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartToken, token)
}

// WithCartScope injects the request-scoped cart cache into the context.
func WithCartScope(ctx context.Context, scope *cartsvc.RequestScope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartScope, scope)
}
