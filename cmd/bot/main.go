package main

import (
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lottery-bot/internal/bot"
	"lottery-bot/internal/config"
	"lottery-bot/internal/handlers"
	"lottery-bot/internal/storage"
	"lottery-bot/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	// Logger config from env (LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT)
	loggerConfig := &logger.Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
		Output: getEnv("LOG_OUTPUT", "stdout"),
	}
	zapLogger, err := logger.New(loggerConfig, logger.DefaultServiceName)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	settings, err := config.Load()
	if err != nil {
		zap.L().Fatal("Invalid configuration", zap.Error(err))
	}

	store, err := storage.New(settings.StorePath, settings.TotalTickets, settings.CardNumber)
	if err != nil {
		zap.L().Fatal("Failed to open ticket store", zap.Error(err))
	}

	b, err := bot.New(settings, store)
	if err != nil {
		zap.L().Fatal("Failed to create bot", zap.Error(err))
	}

	zap.L().Info("Bot started successfully",
		zap.Int("total_tickets", settings.TotalTickets),
		zap.String("store_path", settings.StorePath))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.API.GetUpdatesChan(u)

	for update := range updates {
		if update.Message != nil {
			if !update.Message.Chat.IsPrivate() {
				continue
			}
			if update.Message.IsCommand() {
				switch update.Message.Command() {
				case "start":
					handlers.HandleStart(b, update.Message)
				case "cancel":
					handlers.HandleCancel(b, update.Message)
				default:
					b.SendMessage(update.Message.Chat.ID,
						"Noma'lum buyruq. /start dan foydalaning.", nil)
				}
			} else {
				handlers.HandleMessage(b, update.Message)
			}
		} else if update.CallbackQuery != nil {
			handlers.HandleCallbackQuery(b, update.CallbackQuery)
		}
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
