package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lottery-bot/internal/models"
)

// Menu button labels. The message router matches on these exact strings.
const (
	ButtonBuyTicket     = "🎟 Chiptani sotib olish"
	ButtonMyTickets     = "📋 Mening chiptalarim"
	ButtonGameInfo      = "ℹ️ O'yin haqida"
	ButtonCancel        = "❌ Bekor qilish"
	ButtonStats         = "📊 Statistika"
	ButtonUsers         = "👥 Foydalanuvchilar"
	ButtonBroadcast     = "✉️ Xabar yuborish"
	ButtonChannels      = "📡 Kanal boshqaruvi"
	ButtonExport        = "📥 Excel eksport"
	ButtonCancelTickets = "♻️ Tasdiqlanganlarni bekor qilish"
	ButtonSettings      = "⚙️ Bot sozlamlari"
)

func MainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonBuyTicket),
			tgbotapi.NewKeyboardButton(ButtonMyTickets),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonGameInfo),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func AdminMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonStats),
			tgbotapi.NewKeyboardButton(ButtonUsers),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonBroadcast)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonChannels)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonExport)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonCancelTickets)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonSettings)),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func CancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonCancel)),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func RequestContactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📞 Telefon raqamni yuborish"),
		),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

// AdminDecisionKeyboard carries the approve/reject buttons attached to a
// receipt forwarded for review.
func AdminDecisionKeyboard(purchaseID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Tasdiqlash", "approve:"+purchaseID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Rad etish", "reject:"+purchaseID),
		),
	)
}

// SubscriptionPromptKeyboard lists join links for the given channels plus a
// re-check button.
func SubscriptionPromptKeyboard(channels []models.SubscriptionChannel) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, channel := range channels {
		if channel.Link == "" {
			continue
		}
		title := channel.Title
		if title == "" {
			title = channel.ID
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(title, channel.Link),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Tekshirish", "check_subscription"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// SettingsKeyboard is the admin settings panel.
func SettingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Karta raqami", "settings:card"),
			tgbotapi.NewInlineKeyboardButtonData("👤 Menejer", "settings:manager"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Start xabari", "settings:start_message"),
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ O'yin xabari", "settings:game_info"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Zaxira olish", "settings:backup"),
			tgbotapi.NewInlineKeyboardButtonData("📥 Zaxirani tiklash", "settings:restore"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Bazani tozalash", "settings:clear"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Yopish", "settings:close"),
		),
	)
}

// SubscriptionManagementKeyboard is the admin channel-management panel.
func SubscriptionManagementKeyboard(enabled bool, channelCount int) tgbotapi.InlineKeyboardMarkup {
	toggleLabel := "🔔 Yoqish"
	if enabled {
		toggleLabel = "🔕 O'chirish"
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel, "subs:toggle"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Kanal qo'shish", "subs:add"),
		),
	}
	if channelCount > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("➖ Kanal o'chirish (%d)", channelCount), "subs:remove"),
		))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👁 Ko'rib chiqish", "subs:preview"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📝 Xabar matni", "subs:message"),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Yopish", "subs:close"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
