package telegram

import (
	"fmt"
	"strings"

	"menu-spinner/internal/food"
	"menu-spinner/internal/metrics"
	"menu-spinner/internal/planner"
	"menu-spinner/internal/recipe"
	"menu-spinner/internal/shopping"
)

const helpText = `🎰 *Menu Spinner*

/spin [staples] [dishes] - spin a new menu
/menu - show the current menu
/lock <slot> - lock or unlock a slot
/replace <slot> - swap one slot
/shop - shopping list for the menu
/find <dish> - find alternative recipes

Send a recipe link to add it to the catalog, or any text to search it.`

// formatHelp appends the configured menu defaults to the command list.
func formatHelp(staples, dishes int, lang string) string {
	return fmt.Sprintf("%s\n\n_Default menu: %d staples, %d dishes. Language: %s._", helpText, staples, dishes, lang)
}

var categoryIcons = map[food.Category]string{
	food.CategoryStaple:   "🍚",
	food.CategoryDish:     "🍲",
	food.CategoryColdDish: "🥗",
	food.CategorySoup:     "🥣",
	food.CategoryDrink:    "🍵",
}

func formatMenu(m planner.Menu) string {
	if len(m.Items()) == 0 {
		return "🍽 *Today's Menu*\n\n_The catalog has nothing to spin yet._"
	}

	var sb strings.Builder
	sb.WriteString("🍽 *Today's Menu*\n")

	slot := 1
	section := func(title string, items []food.FoodItem) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n*%s*\n", title)
		for _, it := range items {
			lock := ""
			if m.IsLocked(it.ID) {
				lock = " 🔒"
			}
			fmt.Fprintf(&sb, "%d. %s %s%s\n", slot, categoryIcons[it.Category], it.Name, lock)
			slot++
		}
	}
	section("Staples", m.Staples)
	section("Dishes", m.Dishes)

	sb.WriteString("\n_/lock N, /replace N, /shop_")
	return sb.String()
}

func formatShoppingList(list shopping.List) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	if list.Empty() {
		sb.WriteString("_Nothing to buy._")
		return sb.String()
	}
	for _, it := range list.Items {
		if it.Amount != "" {
			fmt.Fprintf(&sb, "• %s: %s\n", it.Name, it.Amount)
		} else {
			fmt.Fprintf(&sb, "• %s\n", it.Name)
		}
	}
	if list.Fallback {
		sb.WriteString("\n⚠️ _AI was unavailable; ingredients are listed per dish without merging._")
	}
	return sb.String()
}

func formatCandidates(query string, results []recipe.Candidate) string {
	if len(results) == 0 {
		return fmt.Sprintf("🔎 No recipes found for *%s*.", query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 *Recipes for %s*\n\n", query)
	for i, c := range results {
		fmt.Fprintf(&sb, "%d. *%s*\n", i+1, c.Title)
		if c.Snippet != "" {
			fmt.Fprintf(&sb, "_%s_\n", c.Snippet)
		}
		if c.SourceURL != "" {
			fmt.Fprintf(&sb, "%s\n", c.SourceURL)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// maxListed bounds catalog search replies.
const maxListed = 15

func formatFoods(term string, items []food.FoodItem, suggestions []string) string {
	var sb strings.Builder
	if len(items) == 0 {
		fmt.Fprintf(&sb, "🤷 Nothing in the catalog matches *%s*.", term)
		if len(suggestions) > 0 {
			fmt.Fprintf(&sb, "\nDid you mean: %s?", strings.Join(suggestions, ", "))
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "📖 *%d match(es)*\n\n", len(items))
	for i, it := range items {
		if i == maxListed {
			fmt.Fprintf(&sb, "_…and %d more_\n", len(items)-maxListed)
			break
		}
		fmt.Fprintf(&sb, "%s %s", categoryIcons[it.Category], it.Name)
		if len(it.Tags) > 0 {
			fmt.Fprintf(&sb, " _(%s)_", strings.Join(it.Tags, ", "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
		if d.Fallbacks > 0 {
			fmt.Fprintf(&sb, ", %d fallbacks", d.Fallbacks)
		}
		sb.WriteString(")\n")
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	for _, d := range health.Disk {
		fmt.Fprintf(&sb, "• Disk (%s): %s\n", d.Label, metrics.FormatBytes(d.Bytes))
	}
	return sb.String()
}
