package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"menu-spinner/internal/app"
	"menu-spinner/internal/config"
	"menu-spinner/internal/database"
	"menu-spinner/internal/food"
	"menu-spinner/internal/ghost"
	"menu-spinner/internal/llm"
	"menu-spinner/internal/metrics"
	"menu-spinner/internal/planner"
	"menu-spinner/internal/shopping"
	"menu-spinner/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	textGen, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s client: %v", cfg.LLMProvider, err)
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

	snapshots, err := storage.NewSnapshotStore(cfg.SnapshotDir)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot store: %v", err)
	}
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
		History:  shopping.NewRepository(db.SQL),
		Recorder: metricsStore,
	})

	var ghostClient ghost.Client
	if cfg.GhostEnabled() {
		ghostClient = ghost.NewClient(cfg)
	}

	application := app.NewApp(mealPlanner, ghostClient, metricsStore, snapshots, cfg)

	args := os.Args[2:]
	switch os.Args[1] {
	case "spin":
		fs := flag.NewFlagSet("spin", flag.ExitOnError)
		staples, dishes := slotFlags(fs)
		fs.Parse(args)
		err = application.Spin(*staples, *dishes)
	case "search":
		fs := flag.NewFlagSet("search", flag.ExitOnError)
		fs.Parse(args)
		err = application.Search(strings.Join(fs.Args(), " "))
	case "shopping-list":
		fs := flag.NewFlagSet("shopping-list", flag.ExitOnError)
		staples, dishes := slotFlags(fs)
		fs.Parse(args)
		err = application.ShoppingList(ctx, *staples, *dishes)
	case "find":
		fs := flag.NewFlagSet("find", flag.ExitOnError)
		fs.Parse(args)
		if fs.NArg() == 0 {
			log.Fatal("Usage: menu-spinner find <dish name>")
		}
		err = application.FindRecipes(ctx, strings.Join(fs.Args(), " "))
	case "import-url":
		fs := flag.NewFlagSet("import-url", flag.ExitOnError)
		fs.Parse(args)
		if fs.NArg() != 1 {
			log.Fatal("Usage: menu-spinner import-url <url>")
		}
		if err = application.ImportURL(ctx, fs.Arg(0)); err == nil {
			_, err = application.ExportCatalog()
		}
	case "import-ghost":
		if _, err = application.ImportGhost(ctx); err == nil {
			_, err = application.ExportCatalog()
		}
	case "publish":
		fs := flag.NewFlagSet("publish", flag.ExitOnError)
		staples, dishes := slotFlags(fs)
		live := fs.Bool("live", false, "Publish immediately instead of saving a draft")
		fs.Parse(args)
		_, err = application.Publish(ctx, *staples, *dishes, *live)
	case "metrics-cleanup":
		fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := fs.Int("days", 30, "Keep records for the last N days")
		fs.Parse(args)
		err = application.CleanupMetrics(*days)
	case "export":
		_, err = application.ExportCatalog()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func slotFlags(fs *flag.FlagSet) (staples, dishes *int) {
	staples = fs.Int("staples", 0, "Number of staple slots (0 uses DEFAULT_STAPLES)")
	dishes = fs.Int("dishes", 0, "Number of dish slots (0 uses DEFAULT_DISHES)")
	return staples, dishes
}

func printUsage() {
	fmt.Println("Usage: menu-spinner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  spin             Draw a random menu")
	fmt.Println("  search <term>    Search the food catalog")
	fmt.Println("  shopping-list    Draw a menu and build its shopping list")
	fmt.Println("  find <dish>      Find alternative recipes for a dish")
	fmt.Println("  import-url <url> Clip a recipe page into the catalog")
	fmt.Println("  import-ghost     Import recipe posts from Ghost")
	fmt.Println("  publish          Post today's menu and shopping list to Ghost")
	fmt.Println("  metrics-cleanup  Remove old metric records")
	fmt.Println("  export           Write a catalog snapshot")
}
