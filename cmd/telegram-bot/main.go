package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menu-spinner/internal/api"
	"menu-spinner/internal/app"
	"menu-spinner/internal/config"
	"menu-spinner/internal/database"
	"menu-spinner/internal/food"
	"menu-spinner/internal/llm"
	"menu-spinner/internal/metrics"
	"menu-spinner/internal/planner"
	"menu-spinner/internal/shopping"
	"menu-spinner/internal/storage"
	"menu-spinner/internal/telegram"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Infrastructure
	textGen, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create %s client: %v", cfg.LLMProvider, err)
	}
	if c, ok := textGen.(llm.Closer); ok {
		defer c.Close()
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	collector := metrics.NewCollector()
	history := shopping.NewRepository(db.SQL)

	snapshots, err := storage.NewSnapshotStore(cfg.SnapshotDir)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot store: %v", err)
	}

	// 3. Catalog and planner
	items, source, err := app.LoadCatalog(cfg, snapshots)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("Loaded %d catalog items from %s", len(items), source)

	store := planner.NewStore(food.NewCatalog(items...), nil, cfg.DefaultStaples, cfg.DefaultDishes)
	mealPlanner := planner.New(planner.Deps{
		Store:    store,
		TextGen:  textGen,
		Language: cfg.Language,
		History:  history,
		Recorder: metricsStore,
		Observer: collector,
	})

	if cfg.CatalogPath != "" {
		watcher, err := app.NewCatalogWatcher(cfg.CatalogPath, func(items []food.FoodItem) {
			added := mealPlanner.UpsertFoods(items)
			log.Printf("Catalog reloaded: %d items, %d new", len(items), added)
		})
		if err != nil {
			log.Printf("Warning: catalog hot reload disabled: %v", err)
		} else {
			go watcher.Watch(ctx)
		}
	}

	// 4. HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", collector.Handler())
	api.NewHandler(mealPlanner, history).RegisterRoutes(r)

	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg, mealPlanner, metricsStore)
		if err != nil {
			log.Fatalf("Failed to initialize Telegram Bot: %v", err)
		}
		r.Post("/webhook", bot.HandleWebhook)
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set; serving the HTTP API only")
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Menu server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if path, err := snapshots.Checkpoint(mealPlanner.Foods(""), storage.DefaultKeep); err != nil {
		log.Printf("Failed to save catalog snapshot: %v", err)
	} else {
		log.Printf("Catalog saved to %s", path)
	}

	log.Println("Server exiting")
}
