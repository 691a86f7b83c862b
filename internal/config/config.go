package config

import (
	"fmt"
	"os"
	"strconv"
)

// Settings are the process-level configuration values hydrated from the
// environment. Runtime-editable values (card number, templates, subscription
// channels) live in the store instead; CARD_NUMBER only seeds a fresh store.
type Settings struct {
	BotToken     string
	AdminID      int64
	CardNumber   string
	PrizeName    string
	TicketPrice  int64
	TotalTickets int
	StorePath    string
}

// Load reads settings from environment variables. BOT_TOKEN, ADMIN_ID, and
// CARD_NUMBER are required; the rest fall back to defaults.
func Load() (*Settings, error) {
	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	adminRaw := os.Getenv("ADMIN_ID")
	if adminRaw == "" {
		return nil, fmt.Errorf("ADMIN_ID is required")
	}
	adminID, err := strconv.ParseInt(adminRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_ID must be an integer: %w", err)
	}

	cardNumber := os.Getenv("CARD_NUMBER")
	if cardNumber == "" {
		return nil, fmt.Errorf("CARD_NUMBER is required")
	}

	ticketPrice, err := parseIntEnv("TICKET_PRICE", 50_000)
	if err != nil {
		return nil, err
	}
	totalTickets, err := parseIntEnv("TOTAL_TICKETS", 300)
	if err != nil {
		return nil, err
	}

	return &Settings{
		BotToken:     token,
		AdminID:      adminID,
		CardNumber:   cardNumber,
		PrizeName:    getEnv("PRIZE_NAME", "iPhone 16 Pro Max"),
		TicketPrice:  int64(ticketPrice),
		TotalTickets: totalTickets,
		StorePath:    getEnv("STORE_PATH", "data/store.json"),
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}
