package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"menu-spinner/internal/clipper"
	"menu-spinner/internal/config"
	"menu-spinner/internal/ghost"
	"menu-spinner/internal/planner"
	"menu-spinner/internal/shopping"
	"menu-spinner/internal/storage"
)

// CLISession is the planner session used by command-line runs.
const CLISession = "cli"

// ErrGhostDisabled is returned by Ghost commands when no client is configured.
var ErrGhostDisabled = errors.New("ghost integration is not configured (GHOST_API_URL, GHOST_CONTENT_API_KEY)")

// MetricsCleaner deletes old execution metrics. *metrics.Store satisfies it.
type MetricsCleaner interface {
	Cleanup(olderThanDays int) (int64, error)
}

// App holds the application's dependencies.
type App struct {
	planner      *planner.Planner
	ghostClient  ghost.Client
	metricsStore MetricsCleaner
	snapshots    *storage.SnapshotStore
	cfg          *config.Config
	out          io.Writer

	// ingestPause spaces out model calls during bulk imports to stay under
	// free-tier rate limits.
	ingestPause time.Duration
}

// NewApp creates and initializes a new App instance. ghostClient,
// metricsStore and snapshots may be nil.
func NewApp(
	p *planner.Planner,
	ghostClient ghost.Client,
	metricsStore MetricsCleaner,
	snapshots *storage.SnapshotStore,
	cfg *config.Config,
) *App {
	return &App{
		planner:      p,
		ghostClient:  ghostClient,
		metricsStore: metricsStore,
		snapshots:    snapshots,
		cfg:          cfg,
		out:          os.Stdout,
		ingestPause:  5 * time.Second,
	}
}

// Spin draws a new menu and prints it.
func (a *App) Spin(staples, dishes int) error {
	printMenu(a.out, a.planner.Spin(CLISession, staples, dishes))
	return nil
}

// Search prints the catalog items matching term.
func (a *App) Search(term string) error {
	items := a.planner.Foods(term)
	if len(items) == 0 {
		fmt.Fprintf(a.out, "Nothing matches %q.\n", term)
		if s := a.planner.Suggest(term, 3); len(s) > 0 {
			fmt.Fprintf(a.out, "Did you mean: %s?\n", strings.Join(s, ", "))
		}
		return nil
	}
	for _, it := range items {
		fmt.Fprintf(a.out, "%-10s %s", it.Category, it.Name)
		if len(it.Tags) > 0 {
			fmt.Fprintf(a.out, "  [%s]", strings.Join(it.Tags, ", "))
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

// ShoppingList spins a menu and prints it with its shopping list.
func (a *App) ShoppingList(ctx context.Context, staples, dishes int) error {
	m := a.planner.Spin(CLISession, staples, dishes)
	printMenu(a.out, m)

	list, err := a.planner.ShoppingList(ctx, CLISession, "")
	if err != nil {
		return fmt.Errorf("failed to build shopping list: %w", err)
	}
	printShoppingList(a.out, list)
	return nil
}

// FindRecipes prints alternative recipes for query.
func (a *App) FindRecipes(ctx context.Context, query string) error {
	results, err := a.planner.SearchRecipes(ctx, query, "")
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(a.out, "No recipes found for %q.\n", query)
		return nil
	}
	for i, c := range results {
		fmt.Fprintf(a.out, "%d. %s\n", i+1, c.Title)
		if c.Snippet != "" {
			fmt.Fprintf(a.out, "   %s\n", c.Snippet)
		}
		if c.SourceURL != "" {
			fmt.Fprintf(a.out, "   %s\n", c.SourceURL)
		}
	}
	return nil
}

// ImportURL clips a recipe page into the catalog.
func (a *App) ImportURL(ctx context.Context, url string) error {
	item, err := a.planner.ImportURL(ctx, url)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s (%s) as %s\n", item.Name, item.Category, item.ID)
	return nil
}

// ImportGhost turns every post tagged with the configured recipe tag into
// a catalog item. Posts whose title already names a catalog item are
// skipped. It returns how many items were added.
func (a *App) ImportGhost(ctx context.Context) (int, error) {
	if a.ghostClient == nil {
		return 0, ErrGhostDisabled
	}

	fmt.Fprintln(a.out, "Fetching recipe posts from Ghost...")
	posts, err := a.ghostClient.FetchPosts(ctx, a.cfg.GhostRecipeTag)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}
	fmt.Fprintf(a.out, "Fetched %d posts.\n", len(posts))

	known := make(map[string]struct{})
	for _, it := range a.planner.Foods("") {
		known[strings.ToLower(it.Name)] = struct{}{}
	}

	added := 0
	for i, post := range posts {
		if _, ok := known[strings.ToLower(post.Title)]; ok {
			log.Printf("Recipe '%s' already in the catalog. Skipping.", post.Title)
			continue
		}

		text, err := clipper.TextFromHTML(post.HTML)
		if err != nil {
			log.Printf("Failed to read '%s': %v", post.Title, err)
			continue
		}
		item, err := a.planner.ImportText(ctx, "ghost:"+post.ID, post.Title+"\n"+text)
		if err != nil {
			log.Printf("Failed to import '%s': %v", post.Title, err)
			continue
		}
		known[strings.ToLower(item.Name)] = struct{}{}
		added++
		log.Printf("Imported '%s' as %s.", post.Title, item.Name)

		if i < len(posts)-1 && a.ingestPause > 0 {
			select {
			case <-ctx.Done():
				return added, ctx.Err()
			case <-time.After(a.ingestPause):
			}
		}
	}

	fmt.Fprintf(a.out, "Import complete. Added %d items.\n", added)
	return added, nil
}

// Publish spins a menu, builds its shopping list and posts both to Ghost,
// as a draft unless publish is set.
func (a *App) Publish(ctx context.Context, staples, dishes int, publish bool) (*ghost.Post, error) {
	if a.ghostClient == nil {
		return nil, ErrGhostDisabled
	}

	m := a.planner.Spin(CLISession, staples, dishes)
	list, err := a.planner.ShoppingList(ctx, CLISession, "")
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list: %w", err)
	}

	now := time.Now()
	html, err := renderPost(m, list, now)
	if err != nil {
		return nil, err
	}
	post, err := a.ghostClient.CreatePost(ctx, postTitle(now), html, publish)
	if err != nil {
		return nil, fmt.Errorf("failed to publish menu: %w", err)
	}
	fmt.Fprintf(a.out, "Created post %q (%s)\n", post.Title, post.ID)
	return post, nil
}

// CleanupMetrics deletes execution metrics older than days.
func (a *App) CleanupMetrics(days int) error {
	if a.metricsStore == nil {
		return errors.New("metrics store is not available")
	}
	n, err := a.metricsStore.Cleanup(days)
	if err != nil {
		return fmt.Errorf("failed to clean up metrics: %w", err)
	}
	fmt.Fprintf(a.out, "Deleted %d metric rows older than %d days.\n", n, days)
	return nil
}

// ExportCatalog writes the current catalog as a snapshot and prunes old
// ones.
func (a *App) ExportCatalog() (string, error) {
	if a.snapshots == nil {
		return "", errors.New("snapshot store is not available")
	}
	path, err := a.snapshots.Checkpoint(a.planner.Foods(""), storage.DefaultKeep)
	if err != nil {
		return "", fmt.Errorf("failed to export catalog: %w", err)
	}
	fmt.Fprintf(a.out, "Catalog exported to %s\n", path)
	return path, nil
}

func printMenu(w io.Writer, m planner.Menu) {
	fmt.Fprintln(w, "=== TODAY'S MENU ===")
	if len(m.Items()) == 0 {
		fmt.Fprintln(w, "(the catalog has nothing to spin)")
		return
	}
	for i, it := range m.Items() {
		lock := ""
		if m.IsLocked(it.ID) {
			lock = " [locked]"
		}
		fmt.Fprintf(w, "%d. %-7s %s%s\n", i+1, it.Category, it.Name, lock)
	}
}

func printShoppingList(w io.Writer, list shopping.List) {
	fmt.Fprintln(w, "\n=== SHOPPING LIST ===")
	for _, it := range list.Items {
		if it.Amount != "" {
			fmt.Fprintf(w, "- %s: %s\n", it.Name, it.Amount)
		} else {
			fmt.Fprintf(w, "- %s\n", it.Name)
		}
	}
	if list.Fallback {
		fmt.Fprintf(w, "(AI unavailable, ingredients listed per dish: %s)\n", list.Cause)
	}
}
