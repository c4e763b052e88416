package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"

	_ "github.com/aussiebroadwan/otpgate/api/otp" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	ChallengeService *service.ChallengeService
	PrincipalService *service.PrincipalService
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
	r.registerChallenges()
	r.registerPrincipals()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			OTPGate Service API
//	@version		0.1.0
//	@description	One-time-password second factor for host authentication flows: challenge
//	@description	issuance, code delivery, validation and signed step-up assertions.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/otpgate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerChallenges() {
	h := &ChallengeHandler{ChallengeService: r.ChallengeService}

	// POST /v1/challenge - strict rate limit by IP (drives outbound deliveries)
	r.Mux.Handle("POST /v1/challenge",
		httpx.Chain(http.HandlerFunc(h.HandleBegin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /v1/challenge/{id} - strict rate limit by IP (code guessing surface)
	r.Mux.Handle("POST /v1/challenge/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleSubmit),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPrincipals() {
	// POST /v1/principals - strict rate limit by IP (provisioning endpoint)
	h := &PrincipalsHandler{PrincipalService: r.PrincipalService}
	r.Mux.Handle("POST /v1/principals",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
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
