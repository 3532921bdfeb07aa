package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	analyzeHandler "github.com/aegatekeeper/backend/internal/handler/analyze"
	badgeHandler "github.com/aegatekeeper/backend/internal/handler/badge"
	"github.com/aegatekeeper/backend/internal/handler/chatproxy"
	gateHandler "github.com/aegatekeeper/backend/internal/handler/gate"
	paymentHandler "github.com/aegatekeeper/backend/internal/handler/payment"
	personaHandler "github.com/aegatekeeper/backend/internal/handler/persona"
	"github.com/aegatekeeper/backend/internal/middleware"
	personaModel "github.com/aegatekeeper/backend/internal/model/persona"
	aiService "github.com/aegatekeeper/backend/internal/service/ai"
	analyzeService "github.com/aegatekeeper/backend/internal/service/analyze"
	badgeService "github.com/aegatekeeper/backend/internal/service/badge"
	gateService "github.com/aegatekeeper/backend/internal/service/gate"
	paymentService "github.com/aegatekeeper/backend/internal/service/payment"
)

// Deps collects the services the router wires to routes. Optional entries
// may be nil; the affected routes then answer 503 (or 400 for badge config).
type Deps struct {
	AI        *aiService.Service
	Gate      *gateService.Service
	Personas  personaModel.Store
	Website   *analyzeService.WebsiteAnalyzer
	Image     *analyzeService.ImageAnalyzer
	Verifier  *paymentService.Verifier
	Generator *badgeService.Generator
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	r.Route("/api", func(api chi.Router) {
		// Typed-nil guards: a nil *Service must stay a nil interface so the
		// handlers' availability checks keep working.
		var completer chatproxy.Completer
		var streamer gateHandler.Streamer
		if deps.AI != nil {
			completer = deps.AI
			streamer = deps.AI
		}
		chatproxy.New(completer).RegisterRoutes(api)

		personaHandler.New(deps.Personas).RegisterRoutes(api)

		analyzeHandler.New(deps.Website, deps.Image).RegisterRoutes(api)

		var verifier paymentHandler.Verifier
		if deps.Verifier != nil {
			verifier = deps.Verifier
		}
		paymentHandler.New(verifier).RegisterRoutes(api)

		var generator badgeHandler.Generator
		if deps.Generator != nil {
			generator = deps.Generator
		}
		badgeHandler.New(generator).RegisterRoutes(api)

		gateHandler.New(deps.Gate, streamer).RegisterRoutes(api)
	})

	return r
}
