package cart

import (
	"net/http"

	"github.com/avelezquez/shopcart-backend/api/middleware"
	"github.com/avelezquez/shopcart-backend/api/responses"
	"github.com/avelezquez/shopcart-backend/api/validators"
	cartsvc "github.com/avelezquez/shopcart-backend/internal/cart"
	pkgerrors "github.com/avelezquez/shopcart-backend/pkg/errors"
	"github.com/avelezquez/shopcart-backend/pkg/logger"
)

// CartFetch resolves and returns the caller's cart. Internal failures
// degrade to an empty body instead of an error.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		token := middleware.CartTokenFromContext(r.Context())
		scope := middleware.CartScopeFromContext(r.Context())

		record, err := svc.ResolveCart(r.Context(), scope, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(record))
	}
}

// CartAddItem merges a product into the caller's cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toAddItemInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := middleware.CartTokenFromContext(r.Context())
		scope := middleware.CartScopeFromContext(r.Context())

		record, err := svc.AddItem(r.Context(), scope, token, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(record))
	}
}

// CartDeleteItem removes a line, subtracts quantity, or clears the cart.
func CartDeleteItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload DeleteItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toDeleteItemInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := middleware.CartTokenFromContext(r.Context())
		scope := middleware.CartScopeFromContext(r.Context())

		record, err := svc.DeleteItem(r.Context(), scope, token, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(record))
	}
}

// CartSetItemAmount replaces a line's quantity.
func CartSetItemAmount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload SetItemAmountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toSetItemAmountInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := middleware.CartTokenFromContext(r.Context())
		scope := middleware.CartScopeFromContext(r.Context())

		record, err := svc.SetItemAmount(r.Context(), scope, token, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(record))
	}
}

// CartReconcile applies a partial cart patch.
func CartReconcile(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload ReconcileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patch, err := toReconcilePatch(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := middleware.CartTokenFromContext(r.Context())
		scope := middleware.CartScopeFromContext(r.Context())

		record, err := svc.ReconcileCart(r.Context(), scope, token, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(record))
	}
}
