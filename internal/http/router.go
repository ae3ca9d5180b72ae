package http

import "net/http"

// RouterConfig lists the endpoint handlers and the middleware wrapped around
// them, outermost first.
type RouterConfig struct {
	Interactions *InteractionHandler
	Middleware   []func(http.Handler) http.Handler
}

// NewRouter mounts POST /interactions. Other methods on the path get 405
// with an Allow header from the mux.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	if cfg.Interactions != nil {
		mux.Handle("POST /interactions", cfg.Interactions)
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if mw := cfg.Middleware[i]; mw != nil {
			handler = mw(handler)
		}
	}
	return handler
}
