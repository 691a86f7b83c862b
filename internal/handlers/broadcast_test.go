package handlers

import (
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableTelegramError(t *testing.T) {
	assert.True(t, isRetryableTelegramError(&tgbotapi.Error{Code: 429, Message: "Too Many Requests"}))
	assert.True(t, isRetryableTelegramError(&tgbotapi.Error{Code: 500, Message: "Internal Server Error"}))
	assert.True(t, isRetryableTelegramError(&tgbotapi.Error{Code: 502, Message: "Bad Gateway"}))

	// A blocked bot or a bad request will never succeed on retry.
	assert.False(t, isRetryableTelegramError(&tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}))
	assert.False(t, isRetryableTelegramError(&tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}))

	// Wrapped API errors still classify.
	wrapped := fmt.Errorf("send failed: %w", &tgbotapi.Error{Code: 403})
	assert.False(t, isRetryableTelegramError(wrapped))

	// Transport-level failures are assumed transient.
	assert.True(t, isRetryableTelegramError(errors.New("connection reset by peer")))
}
