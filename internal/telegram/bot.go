package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"menu-spinner/internal/config"
	"menu-spinner/internal/metrics"
	"menu-spinner/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	suggestionLimit = 3
	requestTimeout  = 2 * time.Minute
)

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UsageReporter summarizes model usage. *metrics.Store satisfies it.
type UsageReporter interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
}

// Bot serves the planner over a Telegram webhook.
type Bot struct {
	api     *tgbotapi.BotAPI
	out     sender
	planner *planner.Planner
	usage   UsageReporter
	cfg     *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, p *planner.Planner, usage UsageReporter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook for %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	b := newBot(api, cfg, p, usage)
	b.api = api
	return b, nil
}

func newBot(out sender, cfg *config.Config, p *planner.Planner, usage UsageReporter) *Bot {
	return &Bot{out: out, planner: p, usage: usage, cfg: cfg}
}

// HandleWebhook parses an update and processes it in the background.
func (b *Bot) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.cfg.IsAllowedUser(msg.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", msg.From.ID, msg.From.UserName)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		b.processMessage(ctx, msg)
	}()
}

func sessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// parseCommand splits "/cmd@bot a b" into "cmd" and ["a", "b"].
func parseCommand(text string) (string, []string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd), fields[1:], true
}

func isURL(text string) bool {
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID
	sid := sessionID(chatID)

	if cmd, args, ok := parseCommand(text); ok {
		switch cmd {
		case "start", "help":
			b.reply(chatID, b.help())
		case "spin":
			b.handleSpin(chatID, sid, args)
		case "menu":
			b.reply(chatID, formatMenu(b.planner.Menu(sid)))
		case "lock":
			b.handleLock(chatID, sid, args)
		case "replace":
			b.handleReplace(chatID, sid, args)
		case "shop":
			b.handleShop(ctx, chatID, sid)
		case "find":
			b.handleFind(ctx, chatID, strings.Join(args, " "))
		case "metrics":
			b.handleMetrics(chatID, msg.From.ID)
		default:
			b.reply(chatID, b.help())
		}
		return
	}

	if isURL(text) {
		b.handleImport(ctx, chatID, text)
		return
	}
	if text == "" {
		return
	}

	foods := b.planner.Foods(text)
	var suggestions []string
	if len(foods) == 0 {
		suggestions = b.planner.Suggest(text, suggestionLimit)
	}
	b.reply(chatID, formatFoods(text, foods, suggestions))
}

func (b *Bot) help() string {
	staples, dishes := b.planner.Defaults()
	return formatHelp(staples, dishes, b.planner.Language())
}

func (b *Bot) handleSpin(chatID int64, sid string, args []string) {
	staples, dishes := 0, 0
	if len(args) > 0 {
		staples, _ = strconv.Atoi(args[0])
	}
	if len(args) > 1 {
		dishes, _ = strconv.Atoi(args[1])
	}
	b.reply(chatID, formatMenu(b.planner.Spin(sid, staples, dishes)))
}

// slotArg resolves a 1-based slot argument against the current menu.
func (b *Bot) slotArg(chatID int64, sid string, args []string) (string, string, bool) {
	if len(args) == 0 {
		b.reply(chatID, "Which slot? Use the number shown in /menu.")
		return "", "", false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(chatID, fmt.Sprintf("'%s' is not a slot number.", args[0]))
		return "", "", false
	}
	item, ok := b.planner.Menu(sid).Slot(n)
	if !ok {
		b.reply(chatID, fmt.Sprintf("There is no slot %d.", n))
		return "", "", false
	}
	return item.ID, item.Name, true
}

func (b *Bot) handleLock(chatID int64, sid string, args []string) {
	id, name, ok := b.slotArg(chatID, sid, args)
	if !ok {
		return
	}
	status := "🔓 Unlocked"
	if b.planner.ToggleLock(sid, id) {
		status = "🔒 Locked"
	}
	b.reply(chatID, fmt.Sprintf("%s *%s*\n\n%s", status, name, formatMenu(b.planner.Menu(sid))))
}

func (b *Bot) handleReplace(chatID int64, sid string, args []string) {
	id, name, ok := b.slotArg(chatID, sid, args)
	if !ok {
		return
	}
	next, err := b.planner.Replace(sid, id)
	switch {
	case errors.Is(err, planner.ErrLocked):
		b.reply(chatID, fmt.Sprintf("🔒 *%s* is locked. /lock it again to free the slot.", name))
	case next == "":
		b.reply(chatID, fmt.Sprintf("No other option for *%s*.", name))
	default:
		b.reply(chatID, formatMenu(b.planner.Menu(sid)))
	}
}

func (b *Bot) handleShop(ctx context.Context, chatID int64, sid string) {
	sent, err := b.sendStatus(chatID, "🛒 *Building your shopping list...*")
	if err != nil {
		return
	}

	list, err := b.planner.ShoppingList(ctx, sid, "")
	if errors.Is(err, planner.ErrSuperseded) {
		b.edit(chatID, sent.MessageID, "⏭ A newer /shop request replaced this one.")
		return
	}
	b.edit(chatID, sent.MessageID, formatShoppingList(list))
}

func (b *Bot) handleFind(ctx context.Context, chatID int64, query string) {
	if query == "" {
		b.reply(chatID, "Usage: /find <dish>")
		return
	}
	sent, err := b.sendStatus(chatID, "🔎 *Searching recipes...*")
	if err != nil {
		return
	}

	results, err := b.planner.SearchRecipes(ctx, query, "")
	if err != nil {
		log.Printf("Error searching recipes: %v", err)
		b.edit(chatID, sent.MessageID, errorText("searching recipes", err))
		return
	}
	b.edit(chatID, sent.MessageID, formatCandidates(query, results))
}

func (b *Bot) handleImport(ctx context.Context, chatID int64, url string) {
	sent, err := b.sendStatus(chatID, "✂️ *Clipping recipe...*")
	if err != nil {
		return
	}

	item, err := b.planner.ImportURL(ctx, url)
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		b.edit(chatID, sent.MessageID, errorText("clipping recipe", err))
		return
	}
	b.edit(chatID, sent.MessageID, fmt.Sprintf("✅ *Added to the catalog!*\n\n%s %s (%s)", categoryIcons[item.Category], item.Name, item.Category))
}

func (b *Bot) handleMetrics(chatID, userID int64) {
	if userID != b.cfg.AdminTelegramID {
		b.reply(chatID, "⛔ *Access Denied*: Admin only.")
		return
	}
	if b.usage == nil {
		b.reply(chatID, "❌ Metrics are not enabled.")
		return
	}
	usage, err := b.usage.GetDailyUsage(7)
	if err != nil {
		log.Printf("Error fetching metrics: %v", err)
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatMetrics(usage, metrics.GetSysHealth(map[string]string{
		"database":  filepath.Dir(b.cfg.DatabasePath),
		"snapshots": b.cfg.SnapshotDir,
	})))
}

func errorText(action string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", action, safeErr)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.out.Send(msg); err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) sendStatus(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.out.Send(msg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
	}
	return sent, err
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.out.Send(edit); err != nil {
		log.Printf("Failed to edit message in chat %d: %v", chatID, err)
	}
}
