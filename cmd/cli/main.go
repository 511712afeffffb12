package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/askmatsya/bolt/internal/catalog"
	"github.com/askmatsya/bolt/internal/config"
	"github.com/askmatsya/bolt/internal/conversation"
	"github.com/askmatsya/bolt/internal/logger"
	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/notify"
	"github.com/askmatsya/bolt/internal/orders"
	"github.com/askmatsya/bolt/internal/store"
	"github.com/rs/zerolog/log"
)

const usage = "expected 'seed', 'ask' or 'order-status' subcommand"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: "warn", Pretty: true, Output: os.Stderr})
	ctx := context.Background()

	switch os.Args[1] {
	case "seed":
		seed(ctx, openStore(cfg))
	case "ask":
		askCmd := flag.NewFlagSet("ask", flag.ExitOnError)
		lang := askCmd.String("lang", string(cfg.DefaultLanguage), "Reply language (en or ta)")
		askCmd.Parse(os.Args[2:])
		query := strings.Join(askCmd.Args(), " ")
		if query == "" {
			fmt.Println("a query is required, e.g. ask silk sarees for a wedding")
			os.Exit(1)
		}
		ask(ctx, openStore(cfg), cfg, query, models.ParseLanguage(*lang, cfg.DefaultLanguage))
	case "order-status":
		statusCmd := flag.NewFlagSet("order-status", flag.ExitOnError)
		id := statusCmd.String("id", "", "Order ID")
		status := statusCmd.String("status", "", "New status")
		statusCmd.Parse(os.Args[2:])
		if *id == "" || *status == "" {
			fmt.Println("id and status are required")
			statusCmd.PrintDefaults()
			os.Exit(1)
		}
		updateStatus(ctx, openStore(cfg), cfg, *id, models.OrderStatus(*status))
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) *store.Store {
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	// Ensure tables exist if running cli before server
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	return db
}

func seed(ctx context.Context, db *store.Store) {
	defer db.Close()
	res, err := catalog.Seed(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed database")
	}
	fmt.Printf("Seeded %d categories, %d artisans, %d products and %d orders.\n",
		res.Categories, res.Artisans, res.Products, res.Orders)
}

func ask(ctx context.Context, db *store.Store, cfg *config.Config, query string, lang models.Language) {
	defer db.Close()
	cache := catalog.NewCache(catalog.NewChain(
		logger.Component("catalog"),
		catalog.StoreProvider{Store: db},
		catalog.SampleProvider{},
		catalog.PlaceholderProvider{},
	), cfg.CatalogCooldown, nil)
	assistant := conversation.New(conversation.Config{
		Catalog:         cache,
		DefaultLanguage: cfg.DefaultLanguage,
	})

	reply, err := assistant.Ask(ctx, "", query, conversation.AskOptions{Language: lang})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to answer")
	}
	fmt.Printf("[%s/%s, catalog: %s]\n%s\n", reply.Result.Intent, reply.Result.Language, cache.Source(), reply.Result.Response)
	for _, p := range reply.Result.Products {
		fmt.Printf("  - %s (%s) %s\n", p.Name, p.ID, models.FormatINR(p.Price))
	}
}

func updateStatus(ctx context.Context, db *store.Store, cfg *config.Config, id string, status models.OrderStatus) {
	defer db.Close()
	svc := orders.NewService(orders.Config{
		Repo: db,
		Sender: notify.NewWhatsApp(notify.WhatsAppConfig{
			APIKey:        cfg.WhatsAppAPIKey,
			PhoneNumberID: cfg.WhatsAppPhoneNumberID,
			BaseURL:       cfg.WhatsAppBaseURL,
		}, db, nil),
		AdminPhone:      cfg.AdminWhatsApp,
		PublicURL:       cfg.PublicURL,
		DefaultLanguage: cfg.DefaultLanguage,
	})

	order, err := svc.Transition(ctx, id, status)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to update order")
	}
	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(45 * time.Second):
		fmt.Println("Gave up waiting for the WhatsApp status message.")
	}
	fmt.Printf("Order #%s is now %s.\n", order.ShortRef(), order.Status)
}
