package bot

import (
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lottery-bot/internal/config"
	"lottery-bot/internal/models"
	"lottery-bot/internal/storage"
)

// Bot bundles the Telegram API handle, the ticket store, and the per-user
// conversation state that drives multi-step flows.
type Bot struct {
	API         *tgbotapi.BotAPI
	Store       *storage.Store
	Settings    *config.Settings
	States      map[int64]*models.FlowState
	StatesMutex sync.RWMutex
}

func New(settings *config.Settings, store *storage.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(settings.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	zap.L().Info("Authorized on Telegram", zap.String("username", api.Self.UserName))

	return &Bot{
		API:      api,
		Store:    store,
		Settings: settings,
		States:   make(map[int64]*models.FlowState),
	}, nil
}

func (b *Bot) IsAdmin(userID int64) bool {
	return userID == b.Settings.AdminID
}

func (b *Bot) SetState(userID int64, state string, data map[string]interface{}) {
	b.StatesMutex.Lock()
	defer b.StatesMutex.Unlock()

	if data == nil {
		data = make(map[string]interface{})
	}
	b.States[userID] = &models.FlowState{
		UserID:      userID,
		State:       state,
		TempData:    data,
		LastUpdated: time.Now(),
	}
}

func (b *Bot) GetState(userID int64) *models.FlowState {
	b.StatesMutex.RLock()
	defer b.StatesMutex.RUnlock()

	return b.States[userID]
}

func (b *Bot) ClearState(userID int64) {
	b.StatesMutex.Lock()
	defer b.StatesMutex.Unlock()

	delete(b.States, userID)
}

func (b *Bot) SendMessage(chatID int64, text string, replyMarkup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}

	_, err := b.API.Send(msg)
	return err
}

func (b *Bot) SendHTMLMessage(chatID int64, text string, replyMarkup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}

	_, err := b.API.Send(msg)
	return err
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, replyMarkup interface{}) error {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if replyMarkup != nil {
		if markup, ok := replyMarkup.(*tgbotapi.InlineKeyboardMarkup); ok {
			msg.ReplyMarkup = markup
		}
	}

	_, err := b.API.Send(msg)
	return err
}

// EditCaption rewrites the caption of a media message (the admin receipt
// message) after a decision has been taken.
func (b *Bot) EditCaption(chatID int64, messageID int, caption string) error {
	msg := tgbotapi.NewEditMessageCaption(chatID, messageID, caption)
	_, err := b.API.Send(msg)
	return err
}

func (b *Bot) AnswerCallbackQuery(callbackID string, text string) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	_, err := b.API.Request(callback)
	return err
}

func (b *Bot) AnswerCallbackAlert(callbackID string, text string) error {
	callback := tgbotapi.NewCallbackWithAlert(callbackID, text)
	_, err := b.API.Request(callback)
	return err
}

// SendStartContent delivers the rendered welcome message, attaching the
// configured photo or video when one is set.
func (b *Bot) SendStartContent(chatID int64, content models.StartMessage, replyMarkup interface{}) error {
	if content.Media != nil {
		switch content.Media.Type {
		case "photo":
			msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(content.Media.FileID))
			msg.Caption = content.Text
			if replyMarkup != nil {
				msg.ReplyMarkup = replyMarkup
			}
			_, err := b.API.Send(msg)
			return err
		case "video":
			msg := tgbotapi.NewVideo(chatID, tgbotapi.FileID(content.Media.FileID))
			msg.Caption = content.Text
			if replyMarkup != nil {
				msg.ReplyMarkup = replyMarkup
			}
			_, err := b.API.Send(msg)
			return err
		}
	}

	return b.SendMessage(chatID, content.Text, replyMarkup)
}
