package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"lottery-bot/internal/bot"
)

// handleBroadcastContent copies the admin's message to every registered
// user. Transient Telegram failures are retried with exponential backoff;
// a user who has blocked the bot is skipped after the retries run out.
func handleBroadcastContent(b *bot.Bot, message *tgbotapi.Message) {
	userIDs := b.Store.ListUserIDs()
	if len(userIDs) == 0 {
		b.ClearState(message.From.ID)
		b.SendMessage(message.Chat.ID, "📭 Hozircha foydalanuvchilar yo'q.", bot.AdminMenuKeyboard())
		return
	}

	b.ClearState(message.From.ID)
	b.SendMessage(message.Chat.ID,
		fmt.Sprintf("✉️ Xabar %d ta foydalanuvchiga yuborilmoqda...", len(userIDs)), nil)

	sent := 0
	failed := 0
	for _, userID := range userIDs {
		if userID == message.From.ID {
			continue
		}
		if err := sendBroadcastCopy(b, userID, message); err != nil {
			failed++
			zap.L().Warn("Broadcast delivery failed", zap.Error(err), zap.Int64("user_id", userID))
			continue
		}
		sent++
	}

	b.SendMessage(message.Chat.ID,
		fmt.Sprintf("✅ Xabar yuborildi.\n\nYetkazildi: %d\nYetkazilmadi: %d", sent, failed),
		bot.AdminMenuKeyboard())
}

func sendBroadcastCopy(b *bot.Bot, userID int64, message *tgbotapi.Message) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		switch {
		case len(message.Photo) > 0:
			msg := tgbotapi.NewPhoto(userID, tgbotapi.FileID(message.Photo[len(message.Photo)-1].FileID))
			msg.Caption = message.Caption
			_, err = b.API.Send(msg)
		case message.Video != nil:
			msg := tgbotapi.NewVideo(userID, tgbotapi.FileID(message.Video.FileID))
			msg.Caption = message.Caption
			_, err = b.API.Send(msg)
		default:
			_, err = b.API.Send(tgbotapi.NewMessage(userID, message.Text))
		}
		if err != nil {
			if isRetryableTelegramError(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// isRetryableTelegramError treats rate limits and server-side errors as
// transient. A 403 (user blocked the bot) is permanent.
func isRetryableTelegramError(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	// Network-level failures are worth a retry.
	return true
}
