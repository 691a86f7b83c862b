package handlers

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "0", formatCurrency(0))
	assert.Equal(t, "500", formatCurrency(500))
	assert.Equal(t, "50 000", formatCurrency(50_000))
	assert.Equal(t, "1 250 000", formatCurrency(1_250_000))
	assert.Equal(t, "999", formatCurrency(999))
	assert.Equal(t, "1 000", formatCurrency(1000))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"international format", "+998 90 123 45 67", "+998901234567"},
		{"bare local nine digits", "901234567", "+998901234567"},
		{"country code without plus", "998901234567", "+998901234567"},
		{"dashes and spaces", "90-123-45-67", "+998901234567"},
		{"foreign with plus", "+7 915 123 45 67", "+79151234567"},
		{"too short", "12345", ""},
		{"empty", "", ""},
		{"letters only", "telefon", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePhone(tt.raw))
		})
	}
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ali", fullName(&tgbotapi.User{FirstName: "Ali"}))
	assert.Equal(t, "Ali Valiyev", fullName(&tgbotapi.User{FirstName: "Ali", LastName: "Valiyev"}))
}
