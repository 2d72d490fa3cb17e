package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hwbot/partswatch/internal/core/domain"
	"github.com/hwbot/partswatch/internal/core/session"
	"github.com/hwbot/partswatch/internal/ingest/metrics"
)

const aboutText = `I am the component price bot.
I can tell you prices and key specs of computer hardware:
/start - show the menu
/help - command reference`

const helpText = `/start - show the menu
/help - command reference
/low - listings at the lowest price
/high - listings at the highest price
/custom - listings within a price range of your choice
/history - your previous queries
/stop - close the menu`

// Config holds bot configuration.
type Config struct {
	Token string `yaml:"token"`
	// PageSize is how many listings one chat message carries.
	PageSize int `yaml:"page_size"`
}

// Bot is the Telegram front-end. It dispatches incoming updates to the
// query service; every chat gets its own session so multi-step commands
// never share state.
type Bot struct {
	api      *tgbotapi.BotAPI
	service  *Service
	sessions *session.Manager
	pageSize int
	log      *slog.Logger
}

// New creates the bot front-end.
func New(cfg Config, service *Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 5
	}

	return &Bot{
		api:      api,
		service:  service,
		sessions: session.NewManager(),
		pageSize: pageSize,
		log:      slog.Default().With("component", "bot"),
	}, nil
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("bot online", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.handleText(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	sess := b.sessions.Get(msg.Chat.ID)
	metrics.BotCommandsTotal.WithLabelValues(msg.Command()).Inc()

	switch msg.Command() {
	case "start":
		sess.Reset()
		b.send(msg.Chat.ID, aboutText)
	case "help":
		b.send(msg.Chat.ID, helpText)
	case "low", "high", "custom":
		sess.Reset()
		sess.Command = session.Command(msg.Command())
		b.sendCategoryMenu(msg.Chat.ID)
	case "history":
		sess.Reset()
		sess.Command = session.CommandHistory
		b.sendHistoryMenu(ctx, msg.Chat.ID)
	case "stop":
		b.sessions.Drop(msg.Chat.ID)
		b.send(msg.Chat.ID, "Bye. Until the next query.")
	default:
		b.send(msg.Chat.ID, "Unknown command\n/help - command reference")
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	sess := b.sessions.Get(msg.Chat.ID)

	// Free text is only meaningful while custom waits for a price range.
	if sess.Command != session.CommandCustom || sess.Category == "" {
		b.send(msg.Chat.ID, "I did not understand that\n/help - command reference")
		return
	}

	from, upTo, err := ParsePriceRange(msg.Text)
	if err != nil {
		b.send(msg.Chat.ID, "Could not read the price range, expected NNN-MMM. Try again.")
		return
	}

	records, err := b.service.Custom(ctx, msg.Chat.ID, sess.Category, from, upTo)
	switch {
	case errors.Is(err, ErrRangeOutOfBounds):
		b.send(msg.Chat.ID, "That range is outside the stored prices. Try again.")
		return
	case errors.Is(err, ErrNoRecords):
		b.send(msg.Chat.ID, "No listings stored for this category yet.")
		return
	case err != nil:
		b.log.Error("custom query failed", "chat", msg.Chat.ID, "error", err)
		b.send(msg.Chat.ID, "Something went wrong, try again later.")
		return
	}

	sess.PriceFrom = from
	sess.PriceUpTo = upTo
	sess.Offset = 0
	header := fmt.Sprintf("%s: price from %s up to %s",
		sess.Category.DisplayName(), FormatPrice(from), FormatPrice(upTo))
	b.sendRecords(msg.Chat.ID, sess, header, records)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	sess := b.sessions.Get(chatID)
	_, _ = b.api.Request(tgbotapi.NewCallback(cq.ID, ""))

	data := cq.Data
	switch {
	case strings.HasPrefix(data, "cat:"):
		b.handleCategoryChoice(ctx, chatID, sess, strings.TrimPrefix(data, "cat:"))
	case strings.HasPrefix(data, "hist:"):
		b.handleHistoryChoice(ctx, chatID, sess, strings.TrimPrefix(data, "hist:"))
	case data == "next":
		b.handleNextPage(ctx, chatID, sess)
	default:
		b.log.Warn("unexpected callback", "chat", chatID, "data", data)
		sess.Reset()
		b.send(chatID, "Unexpected choice, start over with /help")
	}
}

func (b *Bot) handleCategoryChoice(ctx context.Context, chatID int64, sess *session.Session, key string) {
	category, err := domain.ParseCategory(key)
	if err != nil {
		b.send(chatID, "Pick a category from the menu.")
		return
	}

	switch sess.Command {
	case session.CommandLow, session.CommandHigh:
		sess.Category = category
		sess.Offset = 0
		b.answerBound(ctx, chatID, sess)
	case session.CommandCustom:
		sess.Category = category
		b.promptPriceRange(ctx, chatID, category)
	default:
		b.send(chatID, "Pick a command first: /low, /high or /custom")
	}
}

func (b *Bot) answerBound(ctx context.Context, chatID int64, sess *session.Session) {
	var (
		records []domain.Component
		err     error
	)
	if sess.Command == session.CommandLow {
		records, err = b.service.Low(ctx, chatID, sess.Category)
	} else {
		records, err = b.service.High(ctx, chatID, sess.Category)
	}
	if errors.Is(err, ErrNoRecords) {
		b.send(chatID, "No listings stored for this category yet.")
		return
	}
	if err != nil {
		b.log.Error("bound query failed", "chat", chatID, "error", err)
		b.send(chatID, "Something went wrong, try again later.")
		return
	}

	label := "lowest"
	if sess.Command == session.CommandHigh {
		label = "highest"
	}
	var header string
	if len(records) > 0 {
		sess.PriceFrom = records[0].Price
		sess.PriceUpTo = records[0].Price
		header = fmt.Sprintf("%s: %s price %s",
			sess.Category.DisplayName(), label, FormatPrice(records[0].Price))
	}
	b.sendRecords(chatID, sess, header, records)
}

func (b *Bot) promptPriceRange(ctx context.Context, chatID int64, category domain.Category) {
	minPrice, okMin, err := b.service.MinPrice(ctx, category)
	if err != nil {
		b.log.Error("min price lookup failed", "chat", chatID, "error", err)
	}
	maxPrice, _, err := b.service.MaxPrice(ctx, category)
	if err != nil {
		b.log.Error("max price lookup failed", "chat", chatID, "error", err)
	}
	if !okMin {
		b.send(chatID, "No listings stored for this category yet.")
		return
	}

	b.send(chatID, fmt.Sprintf(
		"%s: prices range from %s to %s.\nEnter your range as NNN-MMM (dollars).",
		category.DisplayName(), FormatPrice(minPrice), FormatPrice(maxPrice)))
}

func (b *Bot) handleHistoryChoice(ctx context.Context, chatID int64, sess *session.Session, id string) {
	if sess.Command != session.CommandHistory {
		b.send(chatID, "Pick a command first: /history")
		return
	}

	entry, found, err := b.service.HistoryEntry(ctx, chatID, id)
	if err != nil {
		b.log.Error("history lookup failed", "chat", chatID, "error", err)
		b.send(chatID, "Something went wrong, try again later.")
		return
	}
	if !found {
		b.send(chatID, "That history entry is gone.")
		return
	}

	sess.HistoryID = id
	sess.Offset = 0
	b.sendRecords(chatID, sess, RenderHistoryEntry(entry), entry.Result)
}

// handleNextPage re-runs the session's active query and renders the next
// page. Re-querying keeps no result set in memory between callbacks.
func (b *Bot) handleNextPage(ctx context.Context, chatID int64, sess *session.Session) {
	switch {
	case sess.Command == session.CommandHistory && sess.HistoryID != "":
		entry, found, err := b.service.HistoryEntry(ctx, chatID, sess.HistoryID)
		if err != nil || !found {
			b.send(chatID, "That history entry is gone.")
			return
		}
		b.sendRecords(chatID, sess, "", entry.Result)
	case sess.Category != "" && sess.PriceUpTo > 0:
		records, err := b.service.Range(ctx, sess.Category, sess.PriceFrom, sess.PriceUpTo)
		if err != nil {
			b.send(chatID, "The stored prices changed, start over.")
			sess.Reset()
			return
		}
		b.sendRecords(chatID, sess, "", records)
	default:
		b.send(chatID, "Nothing to page through, pick a command first.")
	}
}

func (b *Bot) sendRecords(chatID int64, sess *session.Session, header string, records []domain.Component) {
	if len(records) == 0 {
		if header != "" {
			b.send(chatID, header+"\nNo records found")
		} else {
			b.send(chatID, "No records found")
		}
		return
	}

	text, more := RenderPage(records, sess.Offset, b.pageSize)
	if header != "" {
		text = header + "\n" + text
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if more {
		sess.Offset += b.pageSize
		next := fmt.Sprintf("Next (%d of %d shown)", sess.Offset, len(records))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(next, "next"),
			),
		)
	} else {
		sess.Offset = 0
	}

	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send records", "chat", chatID, "error", err)
	}
}

func (b *Bot) sendCategoryMenu(chatID int64) {
	var rows [][]tgbotapi.InlineKeyboardButton
	row := make([]tgbotapi.InlineKeyboardButton, 0, 2)
	for _, c := range domain.Categories() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.DisplayName(), "cat:"+string(c)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, 2)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	msg := tgbotapi.NewMessage(chatID, "Pick a category:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send category menu", "chat", chatID, "error", err)
	}
}

func (b *Bot) sendHistoryMenu(ctx context.Context, chatID int64) {
	entries, err := b.service.History(ctx, chatID)
	if err != nil {
		b.log.Error("history query failed", "chat", chatID, "error", err)
		b.send(chatID, "Something went wrong, try again later.")
		return
	}
	if len(entries) == 0 {
		b.send(chatID, "No saved queries yet.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, e := range entries {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(RenderHistoryEntry(e), "hist:"+e.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, "Your queries:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send history menu", "chat", chatID, "error", err)
	}
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("failed to send message", "chat", chatID, "error", err)
	}
}
