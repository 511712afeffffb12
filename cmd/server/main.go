package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askmatsya/bolt/internal/catalog"
	"github.com/askmatsya/bolt/internal/config"
	"github.com/askmatsya/bolt/internal/conversation"
	"github.com/askmatsya/bolt/internal/handlers"
	"github.com/askmatsya/bolt/internal/logger"
	"github.com/askmatsya/bolt/internal/metrics"
	"github.com/askmatsya/bolt/internal/notify"
	"github.com/askmatsya/bolt/internal/orders"
	"github.com/askmatsya/bolt/internal/speech"
	"github.com/askmatsya/bolt/internal/store"
	"github.com/askmatsya/bolt/web"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	conversationTTL = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	// 2. Init DB
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// 3. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 4. Domain services
	cache := catalog.NewCache(catalog.NewChain(
		logger.Component("catalog"),
		catalog.StoreProvider{Store: db},
		catalog.SampleProvider{},
		catalog.PlaceholderProvider{},
	), cfg.CatalogCooldown, m)

	registry := conversation.NewRegistry()
	assistant := conversation.New(conversation.Config{
		Catalog:         cache,
		Registry:        registry,
		Turns:           db,
		Interactions:    db,
		Speaker:         speech.Planner{},
		Metrics:         m,
		DefaultLanguage: cfg.DefaultLanguage,
	})

	whatsapp := notify.NewWhatsApp(notify.WhatsAppConfig{
		APIKey:        cfg.WhatsAppAPIKey,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		BaseURL:       cfg.WhatsAppBaseURL,
	}, db, m)
	orderService := orders.NewService(orders.Config{
		Repo:            db,
		Sender:          whatsapp,
		AdminPhone:      cfg.AdminWhatsApp,
		PublicURL:       cfg.PublicURL,
		DefaultLanguage: cfg.DefaultLanguage,
		Metrics:         m,
	})

	// 5. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 6. Init Templates
	templates := handlers.NewTemplateCache()
	if err := templates.Load(web.Templates()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load templates")
	}

	// 7. Setup Handlers
	rateLimiter := handlers.NewRateLimiter(time.Minute)
	router := &handlers.Router{
		API: &handlers.APIHandler{
			Assistant:       assistant,
			Catalog:         cache,
			Orders:          orderService,
			Transcriber:     speech.NewTranscriber(cfg.SpeechmaticsAPIKey, cfg.SpeechmaticsBaseURL),
			SessionStore:    sessionStore,
			Metrics:         m,
			DefaultLanguage: cfg.DefaultLanguage,
		},
		Home: &handlers.HomeHandler{
			Catalog:         cache,
			Templates:       templates,
			SessionStore:    sessionStore,
			DefaultLanguage: cfg.DefaultLanguage,
		},
		Orders: &handlers.OrderHandler{
			Catalog:         cache,
			Orders:          orderService,
			Templates:       templates,
			SessionStore:    sessionStore,
			DefaultLanguage: cfg.DefaultLanguage,
		},
		Admin: &handlers.AdminHandler{
			Store:        db,
			Catalog:      cache,
			Orders:       orderService,
			SessionStore: sessionStore,
			Templates:    templates,
			UploadDir:    cfg.UploadDir,
		},
		RateLimiter: rateLimiter,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	// 8. Middleware Setup
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.Path("/"),
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	// Chain: Logger -> Security Headers -> CSRF exemptions -> CSRF -> Mux
	handler := handlers.LoggingMiddleware(m)(
		handlers.SecurityHeadersMiddleware(
			handlers.CSRFExemptions(cfg.Plaintext())(
				CSRF(router.Routes()),
			),
		),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 9. Run until a signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("catalog", cache.Source()).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return rateLimiter.Run(gctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				if n := registry.Prune(now.Add(-conversationTTL)); n > 0 {
					log.Debug().Int("pruned", n).Msg("Pruned idle conversations")
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		orderService.Wait()
		os.Exit(1)
	}
	orderService.Wait()
	log.Info().Msg("Server exited gracefully.")
}
