package telegram

import (
	"context"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/service"
)

// SessionProvider hands out the study session of a learner.
type SessionProvider interface {
	Get(ctx context.Context, learner string) *service.Coordinator
}

// browseQuery is the list a chat is paging through.
type browseQuery struct {
	text    string
	filters entities.Filters
}

type Handler struct {
	bot      *tgbotapi.BotAPI
	logger   *zap.Logger
	sessions SessionProvider

	mu     sync.Mutex
	browse map[int64]browseQuery
}

func NewHandler(bot *tgbotapi.BotAPI, logger *zap.Logger, sessions SessionProvider) *Handler {
	return &Handler{
		bot:      bot,
		logger:   logger,
		sessions: sessions,
		browse:   make(map[int64]browseQuery),
	}
}

// Learner returns the learner key of a chat.
func Learner(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (h *Handler) session(ctx context.Context, chatID int64) *service.Coordinator {
	return h.sessions.Get(ctx, Learner(chatID))
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	chatID := update.Message.Chat.ID

	if update.Message.IsCommand() {
		args := update.Message.CommandArguments()

		switch update.Message.Command() {
		case "start":
			h.send(newMessage(chatID, welcomeMessage()))

		case "help":
			h.send(newMessage(chatID, helpMessage()))

		case "browse":
			_ = h.withErrorHandling(h.browseHandler(args, entities.Filters{}))(ctx, chatID)

		case "favorites":
			_ = h.withErrorHandling(h.browseHandler(args, entities.Filters{FavoritesOnly: true}))(ctx, chatID)

		case "memorized":
			_ = h.withErrorHandling(h.browseHandler(args, entities.Filters{MemorizedOnly: true}))(ctx, chatID)

		case "flash":
			_ = h.withErrorHandling(h.flashcardHandler(parseDeckFilters(args)))(ctx, chatID)

		case "quiz":
			_ = h.withErrorHandling(h.quizHandler(""))(ctx, chatID)

		case "fill":
			_ = h.withErrorHandling(h.quizHandler(entities.KindFillBlank))(ctx, chatID)

		case "progress":
			_ = h.withErrorHandling(h.progressHandler())(ctx, chatID)

		case "mistakes":
			_ = h.withErrorHandling(h.mistakesHandler())(ctx, chatID)

		case "history":
			_ = h.withErrorHandling(h.historyHandler())(ctx, chatID)

		case "reset":
			msg := newMessage(chatID, md(msgResetConfirm))
			msg.ReplyMarkup = buildResetKeyboard()
			h.send(msg)

		default:
			h.send(newMessage(chatID, md(msgUnknownCommand)))
		}

		return
	}

	_ = h.withErrorHandling(h.textHandler(update.Message.Text))(ctx, chatID)
}

// BotCommands lists the commands shown in the Telegram menu.
func BotCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "browse", Description: "Bläddra och sök i ordlistan"},
		{Command: "flash", Description: "Öva med flashkort"},
		{Command: "quiz", Description: "Starta ett quiz"},
		{Command: "fill", Description: "Quiz med luckmeningar"},
		{Command: "favorites", Description: "Dina favoriter"},
		{Command: "memorized", Description: "Inlärda ord"},
		{Command: "progress", Description: "Din framgång"},
		{Command: "mistakes", Description: "Ord du ofta missar"},
		{Command: "history", Description: "Senaste sökningar"},
		{Command: "reset", Description: "Nollställ framgången"},
		{Command: "help", Description: "Hjälp"},
	}
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}
