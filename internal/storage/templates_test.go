package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lottery-bot/internal/models"
)

func TestSetStartMessageRejectsUnknownPlaceholder(t *testing.T) {
	store := newTestStore(t, 10)

	err := store.SetStartMessage("Sovrin: {prize}, g'olib: {winner}", nil)
	require.Error(t, err)

	var placeholderErr *UnknownPlaceholderError
	require.ErrorAs(t, err, &placeholderErr)
	require.Equal(t, "winner", placeholderErr.Name)

	// The stored template is untouched.
	require.Equal(t, DefaultStartTemplate, store.RenderStartContent("{prize}", "{ticket_price}").Text)
}

func TestSetStartMessageRejectsEmptyText(t *testing.T) {
	store := newTestStore(t, 10)

	require.ErrorIs(t, store.SetStartMessage("   \n\t", nil), ErrEmptyTemplate)
	require.ErrorIs(t, store.SetGameInfoMessage(""), ErrEmptyTemplate)
	require.ErrorIs(t, store.SetSubscriptionMessage(" "), ErrEmptyTemplate)
}

func TestRenderStartContentSubstitutesLiveValues(t *testing.T) {
	store := newTestStore(t, 10)

	require.NoError(t, store.SetStartMessage(
		"Sovrin: {prize} | {remaining_tickets}/{total_tickets} | {ticket_price} so'm", nil))

	id := createPurchase(t, store, 1, 4, 100)
	_, _, err := store.ApprovePurchase(id)
	require.NoError(t, err)

	content := store.RenderStartContent("iPhone", "50 000")
	require.Equal(t, "Sovrin: iPhone | 6/10 | 50 000 so'm", content.Text)
	require.Nil(t, content.Media)
}

func TestStartMessageKeepsMediaAttachment(t *testing.T) {
	store := newTestStore(t, 10)

	media := &models.MediaRef{Type: "photo", FileID: "file-123"}
	require.NoError(t, store.SetStartMessage("Salom {prize}!", media))

	content := store.RenderStartContent("iPhone", "50 000")
	require.Equal(t, "Salom iPhone!", content.Text)
	require.NotNil(t, content.Media)
	require.Equal(t, "photo", content.Media.Type)
	require.Equal(t, "file-123", content.Media.FileID)
}

func TestGameInfoMessageRoundTrip(t *testing.T) {
	store := newTestStore(t, 10)

	require.NoError(t, store.SetGameInfoMessage("Sotilgan: {sold_tickets}, qolgan: {remaining_tickets}"))

	id := createPurchase(t, store, 1, 3, 100)
	_, _, err := store.ApprovePurchase(id)
	require.NoError(t, err)
	require.Equal(t, "Sotilgan: 3, qolgan: 7", store.RenderGameInfoMessage("iPhone", "100"))

	restored, err := store.ResetGameInfoMessage()
	require.NoError(t, err)
	require.Equal(t, DefaultGameInfoMessage, restored)
	require.Equal(t, DefaultGameInfoMessage, store.GetGameInfoMessage())
}

func TestGameInfoRejectsStartOnlyPlaceholderSetDifference(t *testing.T) {
	store := newTestStore(t, 10)

	// sold_tickets is valid for game info but not for the start message.
	require.NoError(t, store.SetGameInfoMessage("Sotildi: {sold_tickets}"))

	err := store.SetStartMessage("Sotildi: {sold_tickets}", nil)
	var placeholderErr *UnknownPlaceholderError
	require.ErrorAs(t, err, &placeholderErr)
	require.Equal(t, "sold_tickets", placeholderErr.Name)
}

func TestRenderSubscriptionMessage(t *testing.T) {
	store := newTestStore(t, 10)

	require.NoError(t, store.SetSubscriptionMessage("Obuna bo'ling:\n{channels}"))
	require.Equal(t, "Obuna bo'ling:\n• Kanallar qo'shilmagan", store.RenderSubscriptionMessage(nil))

	require.NoError(t, store.AddSubscriptionChannel("@kanal1", "Birinchi kanal", "https://t.me/kanal1"))
	require.NoError(t, store.AddSubscriptionChannel("-1001234", "", ""))

	rendered := store.RenderSubscriptionMessage(nil)
	require.Equal(t, "Obuna bo'ling:\n• Birinchi kanal\n• -1001234", rendered)
}

func TestSubscriptionChannelManagement(t *testing.T) {
	store := newTestStore(t, 10)

	cfg := store.GetSubscriptionConfig()
	require.False(t, cfg.Enabled)
	require.Empty(t, cfg.Channels)

	require.NoError(t, store.AddSubscriptionChannel("@kanal1", "Kanal", "https://t.me/kanal1"))
	require.NoError(t, store.SetSubscriptionEnabled(true))

	// Re-adding the same ID updates in place instead of duplicating.
	require.NoError(t, store.AddSubscriptionChannel("@kanal1", "Yangi nom", ""))
	cfg = store.GetSubscriptionConfig()
	require.True(t, cfg.Enabled)
	require.Len(t, cfg.Channels, 1)
	require.Equal(t, "Yangi nom", cfg.Channels[0].Title)

	removed, err := store.RemoveSubscriptionChannel("@kanal1")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = store.RemoveSubscriptionChannel("@kanal1")
	require.NoError(t, err)
	require.False(t, removed)
	require.Empty(t, store.GetSubscriptionConfig().Channels)
}

func TestCardNumberAndManagerContact(t *testing.T) {
	store := newTestStore(t, 10)
	require.Equal(t, "8600 0000 0000 0000", store.GetCardNumber())
	require.Equal(t, DefaultManagerContact, store.GetManagerContact())

	require.NoError(t, store.SetCardNumber("  9860 1111 2222 3333  "))
	require.Equal(t, "9860 1111 2222 3333", store.GetCardNumber())

	require.NoError(t, store.SetManagerContact(" @yangi_menejer "))
	require.Equal(t, "@yangi_menejer", store.GetManagerContact())

	// Blank contact falls back to the default.
	require.NoError(t, store.SetManagerContact(""))
	require.Equal(t, DefaultManagerContact, store.GetManagerContact())
}

func TestValidateTemplateIgnoresNonPlaceholderBraces(t *testing.T) {
	store := newTestStore(t, 10)

	// Braces that do not form an identifier are plain text.
	require.NoError(t, store.SetGameInfoMessage("Narx {ticket_price} so'm {} {123}"))
	require.Contains(t, store.RenderGameInfoMessage("x", "100"), "{} {123}")
}
