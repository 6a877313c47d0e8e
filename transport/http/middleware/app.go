package middleware

import (
	"net/http"

	"campus/config"
	"campus/infras/otel"
	"campus/shared/cache"
	"campus/shared/constant"
)

// App holds the cross-cutting request middlewares.
type App interface {
	Tracing(next http.Handler) http.Handler
	RateLimit() func(http.Handler) http.Handler
}

type appMiddleware struct {
	config *config.Config
	cache  cache.RedisCache
	otel   otel.Otel
}

func NewAppMiddleware(cfg *config.Config, cache cache.RedisCache, otel otel.Otel) App {
	return &appMiddleware{
		config: cfg,
		cache:  cache,
		otel:   otel,
	}
}

// Tracing opens a span covering the whole request.
func (a *appMiddleware) Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, scope := a.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, r.Method+" "+r.URL.Path)
		defer scope.End()

		scope.SetAttributes(map[string]any{
			"http.method":     r.Method,
			"http.path":       r.URL.Path,
			"http.user_agent": a.getUA(r),
			"http.client_ip":  a.getClientIP(r),
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
