package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123456:test-token")
	t.Setenv("ADMIN_ID", "987654321")
	t.Setenv("CARD_NUMBER", "8600 0000 0000 0000")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("TICKET_PRICE", "")
	t.Setenv("TOTAL_TICKETS", "")
	t.Setenv("PRIZE_NAME", "")
	t.Setenv("STORE_PATH", "")

	settings, err := Load()
	require.NoError(t, err)
	require.Equal(t, "123456:test-token", settings.BotToken)
	require.Equal(t, int64(987654321), settings.AdminID)
	require.Equal(t, "8600 0000 0000 0000", settings.CardNumber)
	require.Equal(t, int64(50_000), settings.TicketPrice)
	require.Equal(t, 300, settings.TotalTickets)
	require.Equal(t, "iPhone 16 Pro Max", settings.PrizeName)
	require.Equal(t, "data/store.json", settings.StorePath)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TICKET_PRICE", "75000")
	t.Setenv("TOTAL_TICKETS", "500")
	t.Setenv("PRIZE_NAME", "MacBook Pro")
	t.Setenv("STORE_PATH", "/var/lib/lottery/store.json")

	settings, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(75_000), settings.TicketPrice)
	require.Equal(t, 500, settings.TotalTickets)
	require.Equal(t, "MacBook Pro", settings.PrizeName)
	require.Equal(t, "/var/lib/lottery/store.json", settings.StorePath)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_TOKEN", "")
	_, err := Load()
	require.ErrorContains(t, err, "BOT_TOKEN")

	setRequired(t)
	t.Setenv("ADMIN_ID", "")
	_, err = Load()
	require.ErrorContains(t, err, "ADMIN_ID")

	setRequired(t)
	t.Setenv("CARD_NUMBER", "")
	_, err = Load()
	require.ErrorContains(t, err, "CARD_NUMBER")
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_ID", "not-a-number")
	_, err := Load()
	require.ErrorContains(t, err, "ADMIN_ID")

	setRequired(t)
	t.Setenv("TICKET_PRICE", "bepul")
	_, err = Load()
	require.ErrorContains(t, err, "TICKET_PRICE")

	setRequired(t)
	t.Setenv("TICKET_PRICE", "")
	t.Setenv("TOTAL_TICKETS", "ko'p")
	_, err = Load()
	require.ErrorContains(t, err, "TOTAL_TICKETS")
}
