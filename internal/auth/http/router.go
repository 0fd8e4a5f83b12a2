package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lanternauth/lantern/internal/auth/service"
	"github.com/lanternauth/lantern/internal/auth/store"
	"github.com/lanternauth/lantern/pkg/httpx"
	"github.com/lanternauth/lantern/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	AuthServer       *service.AuthorizationServer
	MagicLinkService *service.MagicLinkService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerMagicLink()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	// POST /token - strict rate limit by IP (covers all grant types)
	tokenHandler := &TokenHandler{Server: r.AuthServer}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /introspect - moderate rate limit (resource servers poll this)
	introspectHandler := &IntrospectHandler{Server: r.AuthServer}
	r.Mux.Handle("POST /v1/oauth2/introspect",
		httpx.Chain(introspectHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /revoke - moderate rate limit
	revokeHandler := &RevokeHandler{Server: r.AuthServer}
	r.Mux.Handle("POST /v1/oauth2/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMagicLink() {
	// POST /magic-link/send - strict rate limit by IP (sends email)
	sendHandler := &SendMagicLinkHandler{MagicLinkService: r.MagicLinkService}
	r.Mux.Handle("POST /v1/auth/magic-link/send",
		httpx.Chain(sendHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
