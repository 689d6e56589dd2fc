package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/paylite/ewallet/internal/config"
	"github.com/paylite/ewallet/internal/events/kafka"
	"github.com/paylite/ewallet/internal/httpapi"
	"github.com/paylite/ewallet/internal/interfaces"
	"github.com/paylite/ewallet/internal/models"
	"github.com/paylite/ewallet/internal/storage/memory"
	"github.com/paylite/ewallet/internal/storage/postgres"
	"github.com/paylite/ewallet/internal/wallet"
)

func main() {
	cfg := config.Load()

	var store interfaces.WalletStore
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("ping database: %v", err)
		}

		pgStore := postgres.NewStore(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		store = pgStore
		log.Println("using postgres store")
	} else {
		memStore := memory.NewStore()
		seedDemoAccounts(memStore)
		store = memStore
		log.Println("DATABASE_URL not set; using in-memory store")
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Printf("publishing events to %v", cfg.KafkaBrokers)
	}

	engine := wallet.NewEngine(store, publisher)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpapi.NewServer(engine).Routes(),
	}

	go func() {
		log.Printf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("server exited")
}

// seedDemoAccounts gives the in-memory store something to move money
// between. Real deployments create accounts at signup, outside this
// service.
func seedDemoAccounts(store *memory.Store) {
	ctx := context.Background()
	for _, a := range []models.Account{
		{
			ID:        uuid.NewString(),
			Email:     "demo@paylite.dev",
			FirstName: "Demo",
			LastName:  "User",
			Balance:   decimal.RequireFromString("100.00"),
		},
		{
			ID:        uuid.NewString(),
			Email:     "partner@paylite.dev",
			FirstName: "Partner",
			LastName:  "User",
			Balance:   decimal.Zero,
		},
	} {
		if err := store.CreateAccount(ctx, a); err != nil {
			log.Fatalf("seed account: %v", err)
		}
		log.Printf("seeded account %s (%s)", a.Email, a.ID)
	}
}
