package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	cartsvc "github.com/avelezquez/shopcart-backend/internal/cart"
	"github.com/avelezquez/shopcart-backend/pkg/config"
	"github.com/avelezquez/shopcart-backend/pkg/logger"
)

const cartTokenHeader = "X-Cart-Token"

// CartToken binds every request to a cart identity token. The token comes
// from the session cookie or the X-Cart-Token header; callers without a
// usable token get a freshly minted one set back on the response cookie.
// The middleware also seeds the request-scoped cart cache.
func CartToken(cfg config.CartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r, cfg.CookieName)
			if len(token) < cfg.TokenMinLength {
				token = mintToken()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cfg.CookieMaxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithCartHash(ctx, token)
			}
			ctx = WithCartToken(ctx, token)
			ctx = WithCartScope(ctx, cartsvc.NewRequestScope(clientIP(r)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.TrimSpace(r.Header.Get(cartTokenHeader))
}

func mintToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
