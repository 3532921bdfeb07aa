package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/aegatekeeper/backend/internal/config"
	"github.com/aegatekeeper/backend/internal/handler"
	"github.com/aegatekeeper/backend/internal/model/persona"
	"github.com/aegatekeeper/backend/internal/service/ai"
	"github.com/aegatekeeper/backend/internal/service/analyze"
	"github.com/aegatekeeper/backend/internal/service/badge"
	gateService "github.com/aegatekeeper/backend/internal/service/gate"
	paymentService "github.com/aegatekeeper/backend/internal/service/payment"
	"github.com/aegatekeeper/backend/internal/service/scoring"
	"github.com/aegatekeeper/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	sessionService := session.NewService()

	// Chat model: optional. Without credentials the gate endpoints that need
	// it answer 503 and the analyzers fall back to their defaults.
	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - check AI_API_KEY and AI_MODEL")
		} else {
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("AI credentials not configured, skipping chat model initialization")
	}

	// Turn scoring: LLM classifier when enabled, keyword heuristics otherwise.
	scoringCfg := scoring.Config{
		Enabled:      cfg.AI.ScoringLLMEnabled,
		HistoryLimit: cfg.AI.ScoringHistoryLimit,
	}
	var chatModelForScoring model.ChatModel
	if aiService != nil {
		chatModelForScoring = aiService.GetChatModel()
	}
	scoringService, err := scoring.NewService(ctx, chatModelForScoring, scoringCfg)
	if err != nil {
		log.Printf("warning: failed to initialize scoring service: %v", err)
		scoringService = nil
	} else if scoringService.Enabled() {
		log.Println("LLM turn scoring enabled")
	} else if scoringCfg.Enabled {
		log.Println("LLM turn scoring requested but chat model unavailable, falling back to heuristics")
	} else {
		log.Println("Turn scoring using keyword heuristics")
	}

	websiteAnalyzer := analyze.NewWebsiteAnalyzer(aiService, cfg.Analyze.WebsiteTimeout)
	imageAnalyzer := analyze.NewImageAnalyzer(aiService)

	// Payment verification: needs a receiver address. The store is durable
	// when PAYMENT_STORE_PATH is set, volatile otherwise.
	var verifier *paymentService.Verifier
	if cfg.Chain.ReceiverAddress != "" {
		var store paymentService.Store
		if cfg.Payments.StorePath != "" {
			sqliteStore, err := paymentService.NewSQLite(cfg.Payments.StorePath)
			if err != nil {
				log.Fatalf("failed to open payment store: %v", err)
			}
			defer sqliteStore.Close()
			store = sqliteStore
			log.Printf("Payment store: sqlite at %s", cfg.Payments.StorePath)
		} else {
			store = paymentService.NewMemoryStore()
			log.Println("Payment store: in-memory (process lifetime)")
		}
		verifier = paymentService.NewVerifier(paymentService.NewNodeClient(cfg.Chain.NodeURL), store, cfg.Chain.ReceiverAddress)
		log.Printf("Payment verification enabled: node=%s", cfg.Chain.NodeURL)
	} else {
		log.Println("AE_RECEIVER_ADDRESS not configured, payment verification disabled")
	}

	// Badge generation: optional, paid path only.
	var generator *badge.Generator
	if cfg.Badge.Enabled() {
		generator, err = badge.NewGenerator(cfg.Badge)
		if err != nil {
			log.Printf("warning: failed to initialize badge generator: %v", err)
			generator = nil
		} else {
			log.Println("Badge generator initialized successfully")
		}
	} else {
		log.Println("Badge generation not configured, paid badges disabled")
	}

	var badgePortraits badge.PortraitGenerator
	if generator != nil {
		badgePortraits = generator
	}
	badgeService := badge.NewService(badgePortraits)

	var replier gateService.Replier
	if aiService != nil {
		replier = aiService
	}
	var scorer gateService.Scorer
	if scoringService != nil {
		scorer = scoringService
	}
	var gateVerifier gateService.Verifier
	if verifier != nil {
		gateVerifier = verifier
	}
	gateSvc := gateService.NewService(
		sessionService,
		personaStore,
		replier,
		scorer,
		websiteAnalyzer,
		imageAnalyzer,
		badgeService,
		gateVerifier,
	)

	router := handler.NewRouter(handler.Deps{
		AI:        aiService,
		Gate:      gateSvc,
		Personas:  personaStore,
		Website:   websiteAnalyzer,
		Image:     imageAnalyzer,
		Verifier:  verifier,
		Generator: generator,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Gatekeeper backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
