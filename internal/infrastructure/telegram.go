package infrastructure

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"supportbot/internal/entities"
	"supportbot/internal/interfaces"
)

const (
	telegramSessionPrefix  = "tg-"
	categoryCallbackPrefix = "cat:"
	maxCallbackData        = 64
	maxCategoryQuestions   = 10
)

// telegramAPI is the part of *tgbotapi.BotAPI the channel uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramChannel relays Telegram chats to the chat handler. Each Telegram
// chat maps to one support session.
type TelegramChannel struct {
	bot     *tgbotapi.BotAPI
	api     telegramAPI
	handler interfaces.ChatHandler
	entries func() []entities.FAQEntry
	logger  zerolog.Logger
	timeout time.Duration
}

func NewTelegramChannel(token string, debug bool, handler interfaces.ChatHandler, entries func() []entities.FAQEntry, logger zerolog.Logger) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = debug
	return &TelegramChannel{
		bot:     bot,
		api:     bot,
		handler: handler,
		entries: entries,
		logger:  logger.With().Str("channel", "telegram").Str("bot", bot.Self.UserName).Logger(),
		timeout: 90 * time.Second,
	}, nil
}

// Run polls for updates until ctx is cancelled.
func (t *TelegramChannel) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	t.logger.Info().Msg("started polling")
	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.logger.Info().Msg("stopped polling")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go t.handleUpdate(ctx, update)
		}
	}
}

// SendMessage implements interfaces.Messenger; to is a chat ID.
func (t *TelegramChannel) SendMessage(to, content string) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", to, err)
	}
	_, err = t.api.Send(tgbotapi.NewMessage(chatID, content))
	return err
}

func (t *TelegramChannel) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		t.handleCallback(update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	msg := update.Message
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			reply := tgbotapi.NewMessage(chatID, "Welcome! Ask me anything about our service, or pick a topic below.")
			if kb, ok := CategoryKeyboard(t.entries()); ok {
				reply.ReplyMarkup = kb
			}
			t.send(reply)
			return
		case "help":
			t.send(tgbotapi.NewMessage(chatID, "Type your question and I will answer from our FAQ or connect you with our support team."))
			return
		}
	}

	_, _ = t.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	customerID := telegramSessionPrefix + strconv.FormatInt(chatID, 10)
	if msg.From != nil {
		customerID = telegramSessionPrefix + strconv.FormatInt(msg.From.ID, 10)
	}
	resp, err := t.handler.HandleMessage(reqCtx, entities.ChatRequest{
		Message:    msg.Text,
		SessionID:  TelegramSessionID(chatID),
		CustomerID: customerID,
		Channel:    "telegram",
	})
	if err != nil {
		t.logger.Error().Err(err).Int64("chat_id", chatID).Msg("handle message")
		t.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong. Please try again in a moment."))
		return
	}

	t.send(tgbotapi.NewMessage(chatID, resp.BotResponse))
}

func (t *TelegramChannel) handleCallback(cb *tgbotapi.CallbackQuery) {
	_, _ = t.api.Request(tgbotapi.NewCallback(cb.ID, ""))
	if cb.Message == nil || !strings.HasPrefix(cb.Data, categoryCallbackPrefix) {
		return
	}
	category := strings.TrimPrefix(cb.Data, categoryCallbackPrefix)
	t.send(tgbotapi.NewMessage(cb.Message.Chat.ID, CategoryDigest(t.entries(), category)))
}

func (t *TelegramChannel) send(c tgbotapi.Chattable) {
	if _, err := t.api.Send(c); err != nil {
		t.logger.Warn().Err(err).Msg("send failed")
	}
}

func TelegramSessionID(chatID int64) string {
	return telegramSessionPrefix + strconv.FormatInt(chatID, 10)
}

// CategoryKeyboard lists FAQ categories two per row. ok is false when there
// is nothing to show.
func CategoryKeyboard(entries []entities.FAQEntry) (tgbotapi.InlineKeyboardMarkup, bool) {
	cats := categories(entries)
	if len(cats) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, cat := range cats {
		data := categoryCallbackPrefix + cat
		if len(data) > maxCallbackData {
			data = data[:maxCallbackData]
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(cat, data))
		if (i+1)%2 == 0 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// CategoryDigest renders the first questions of a category. A prefix match
// is accepted because callback data may have been truncated.
func CategoryDigest(entries []entities.FAQEntry, category string) string {
	var sb strings.Builder
	n := 0
	for _, e := range entries {
		if !e.IsActive || !strings.HasPrefix(e.Category, category) {
			continue
		}
		if n == 0 {
			fmt.Fprintf(&sb, "%s\n", e.Category)
		}
		fmt.Fprintf(&sb, "\nQ: %s\nA: %s\n", e.Question, e.Answer)
		n++
		if n == maxCategoryQuestions {
			break
		}
	}
	if n == 0 {
		return "No questions found in this topic yet."
	}
	return sb.String()
}

func categories(entries []entities.FAQEntry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if !e.IsActive || seen[e.Category] {
			continue
		}
		seen[e.Category] = true
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out
}
