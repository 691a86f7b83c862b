package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lottery-bot/internal/bot"
	"lottery-bot/internal/export"
	"lottery-bot/internal/models"
	"lottery-bot/internal/storage"
)

// Admin input states.
const (
	stateAwaitingBroadcast    = "awaiting_broadcast"
	stateAwaitingCardNumber   = "awaiting_card_number"
	stateAwaitingManager      = "awaiting_manager"
	stateAwaitingStartMessage = "awaiting_start_message"
	stateAwaitingGameInfo     = "awaiting_game_info"
	stateAwaitingSubMessage   = "awaiting_sub_message"
	stateAwaitingChannelAdd   = "awaiting_channel_add"
	stateAwaitingChannelDrop  = "awaiting_channel_drop"
	stateAwaitingRestoreFile  = "awaiting_restore_file"
)

const pendingPageSize = 5

func sendAdminHome(b *bot.Bot, chatID int64) {
	summary := b.Store.GetSummary()
	text := fmt.Sprintf(
		"👮 Admin panel\n\n"+
			"🎟 Jami chipta: %d\n"+
			"✅ Sotilgan: %d\n"+
			"🕐 Qolgan: %d\n"+
			"⏳ Kutilayotgan to'lovlar: %d\n"+
			"💰 Daromad: %s so'm",
		summary.Total, summary.Sold, summary.Remaining, summary.PendingCount,
		formatCurrency(summary.Revenue))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏳ Kutilayotgan to'lovlar", "pending_page:0"),
		),
	)
	b.SendMessage(chatID, text, keyboard)
	b.SendMessage(chatID, "Boshqaruv menyusi:", bot.AdminMenuKeyboard())
}

// handleAdminMessage routes admin menu buttons and admin input states.
// Returns true when the message was consumed.
func handleAdminMessage(b *bot.Bot, message *tgbotapi.Message) bool {
	switch message.Text {
	case bot.ButtonStats:
		handleAdminStats(b, message.Chat.ID)
		return true
	case bot.ButtonUsers:
		handleAdminUsers(b, message.Chat.ID)
		return true
	case bot.ButtonBroadcast:
		b.SetState(message.From.ID, stateAwaitingBroadcast, nil)
		b.SendMessage(message.Chat.ID,
			"✉️ Barcha foydalanuvchilarga yuboriladigan xabarni kiriting.", bot.CancelKeyboard())
		return true
	case bot.ButtonChannels:
		sendSubscriptionMenu(b, message.Chat.ID, "")
		return true
	case bot.ButtonExport:
		handleAdminExport(b, message.Chat.ID)
		return true
	case bot.ButtonCancelTickets:
		handleApprovedList(b, message.Chat.ID)
		return true
	case bot.ButtonSettings:
		b.SendMessage(message.Chat.ID, "⚙️ Bot sozlamalari", bot.SettingsKeyboard())
		return true
	}

	state := b.GetState(message.From.ID)
	if state == nil {
		return false
	}

	switch state.State {
	case stateAwaitingBroadcast:
		handleBroadcastContent(b, message)
	case stateAwaitingCardNumber:
		handleCardNumberInput(b, message)
	case stateAwaitingManager:
		handleManagerInput(b, message)
	case stateAwaitingStartMessage:
		handleStartMessageInput(b, message)
	case stateAwaitingGameInfo:
		handleGameInfoInput(b, message)
	case stateAwaitingSubMessage:
		handleSubMessageInput(b, message)
	case stateAwaitingChannelAdd:
		handleChannelAddInput(b, message)
	case stateAwaitingChannelDrop:
		handleChannelDropInput(b, message)
	case stateAwaitingRestoreFile:
		handleRestoreUpload(b, message)
	default:
		return false
	}
	return true
}

func handleAdminStats(b *bot.Bot, chatID int64) {
	stats := b.Store.GetDetailedStats()

	var sb strings.Builder
	sb.WriteString("📊 Batafsil statistika\n")
	sb.WriteString("━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&sb, "🎟 Jami chipta: %d\n", stats.TotalTickets)
	fmt.Fprintf(&sb, "✅ Sotilgan: %d\n", stats.TicketsSold)
	fmt.Fprintf(&sb, "🕐 Qolgan: %d\n", stats.RemainingTickets)
	fmt.Fprintf(&sb, "💰 Daromad: %s so'm\n\n", formatCurrency(stats.TotalRevenue))
	fmt.Fprintf(&sb, "📋 To'lovlar: %d ta\n", stats.TotalPurchases)
	fmt.Fprintf(&sb, "  • Tasdiqlangan: %d\n", stats.ApprovedCount)
	fmt.Fprintf(&sb, "  • Rad etilgan: %d\n", stats.RejectedCount)
	fmt.Fprintf(&sb, "  • Kutilmoqda: %d (%s so'm)\n\n", stats.PendingCount, formatCurrency(stats.PendingAmount))
	fmt.Fprintf(&sb, "👥 Foydalanuvchilar: %d\n", stats.TotalUsers)
	fmt.Fprintf(&sb, "  • Faol (24 soat): %d\n", stats.ActiveUsers24h)
	fmt.Fprintf(&sb, "  • Yangi (24 soat): %d\n", stats.NewUsers24h)
	fmt.Fprintf(&sb, "  • O'rtacha chipta: %.1f\n", stats.AvgTicketsPerUser)
	fmt.Fprintf(&sb, "  • O'rtacha xarajat: %.0f so'm\n", stats.AvgSpendPerUser)

	if len(stats.TopUsers) > 0 {
		sb.WriteString("\n🏆 Eng faol xaridorlar:\n")
		for i, top := range stats.TopUsers {
			name := top.FullName
			if name == "" {
				name = strconv.FormatInt(top.UserID, 10)
			}
			fmt.Fprintf(&sb, "%d. %s — %d ta chipta (%s so'm)\n",
				i+1, name, top.Tickets, formatCurrency(top.Spent))
		}
	}

	b.SendMessage(chatID, sb.String(), bot.AdminMenuKeyboard())
}

func handleAdminUsers(b *bot.Bot, chatID int64) {
	users := b.Store.ListUsers()
	if len(users) == 0 {
		b.SendMessage(chatID, "📭 Hozircha foydalanuvchilar yo'q.", bot.AdminMenuKeyboard())
		return
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].LastActive.After(users[j].LastActive)
	})

	const limit = 30
	shown := users
	if len(shown) > limit {
		shown = shown[:limit]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Foydalanuvchilar (%d ta, oxirgi faollik bo'yicha):\n\n", len(users))
	for _, u := range shown {
		name := u.FullName
		if name == "" {
			name = strconv.FormatInt(u.UserID, 10)
		}
		fmt.Fprintf(&sb, "• %s", name)
		if u.Username != "" {
			fmt.Fprintf(&sb, " (@%s)", u.Username)
		}
		fmt.Fprintf(&sb, "\n  🆔 %d", u.UserID)
		if u.PhoneNumber != "" {
			fmt.Fprintf(&sb, " | 📞 %s", u.PhoneNumber)
		}
		fmt.Fprintf(&sb, "\n  🎟 %d ta chipta | 💰 %s so'm\n", u.TotalTickets, formatCurrency(u.TotalSpent))
	}
	if len(users) > limit {
		fmt.Fprintf(&sb, "\n... va yana %d ta foydalanuvchi.", len(users)-limit)
	}

	b.SendMessage(chatID, sb.String(), bot.AdminMenuKeyboard())
}

func handleDecisionCallback(b *bot.Bot, callback *tgbotapi.CallbackQuery, verb string, parts []string) {
	if !b.IsAdmin(callback.From.ID) {
		b.AnswerCallbackQuery(callback.ID, "Ruxsat yo'q.")
		return
	}
	if len(parts) < 2 {
		return
	}
	purchaseID := parts[1]

	if verb == "approve" {
		tickets, purchase, err := b.Store.ApprovePurchase(purchaseID)
		if err != nil {
			zap.L().Error("Failed to approve purchase", zap.Error(err), zap.String("purchase_id", purchaseID))
			b.AnswerCallbackAlert(callback.ID, "❌ Saqlashda xatolik yuz berdi.")
			return
		}
		if purchase == nil {
			// Still pending means the pool ran short; otherwise it was
			// already settled by an earlier decision.
			if b.Store.IsPending(purchaseID) {
				b.AnswerCallbackAlert(callback.ID,
					fmt.Sprintf("❗ Chiptalar yetarli emas. Qolgan: %d. Rad eting yoki keyinroq urinib ko'ring.",
						b.Store.RemainingTickets()))
			} else {
				b.AnswerCallbackAlert(callback.ID, "Bu to'lov allaqachon ko'rib chiqilgan.")
			}
			return
		}

		b.AnswerCallbackQuery(callback.ID, "✅ Tasdiqlandi")
		finishAdminReceiptMessage(b, callback, purchase, "✅ TASDIQLANDI")
		notifyUserApproved(b, purchase, tickets)
		return
	}

	purchase, err := b.Store.RejectPurchase(purchaseID)
	if err != nil {
		zap.L().Error("Failed to reject purchase", zap.Error(err), zap.String("purchase_id", purchaseID))
		b.AnswerCallbackAlert(callback.ID, "❌ Saqlashda xatolik yuz berdi.")
		return
	}
	if purchase == nil {
		b.AnswerCallbackAlert(callback.ID, "Bu to'lov allaqachon ko'rib chiqilgan.")
		return
	}

	b.AnswerCallbackQuery(callback.ID, "❌ Rad etildi")
	finishAdminReceiptMessage(b, callback, purchase, "❌ RAD ETILDI")

	text := fmt.Sprintf(
		"😔 Afsuski, to'lovingiz rad etildi.\n"+
			"Savollar bo'lsa menejerga murojaat qiling: %s",
		b.Store.GetManagerContact())
	if err := b.SendMessage(purchase.UserID, text, nil); err != nil {
		zap.L().Error("Failed to notify user of rejection", zap.Error(err), zap.Int64("user_id", purchase.UserID))
	}
}

// finishAdminReceiptMessage stamps the decision onto the admin's receipt
// message so it can not be acted on twice by accident.
func finishAdminReceiptMessage(b *bot.Bot, callback *tgbotapi.CallbackQuery, purchase *models.Purchase, verdict string) {
	if callback.Message == nil {
		return
	}
	caption := callback.Message.Caption
	if caption == "" {
		caption = "To'lov " + purchase.ID
	}
	if err := b.EditCaption(callback.Message.Chat.ID, callback.Message.MessageID, caption+"\n\n"+verdict); err != nil {
		zap.L().Warn("Failed to update receipt caption", zap.Error(err), zap.String("purchase_id", purchase.ID))
	}
}

func notifyUserApproved(b *bot.Bot, purchase *models.Purchase, tickets []int) {
	sorted := make([]int, len(tickets))
	copy(sorted, tickets)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = strconv.Itoa(t)
	}

	text := fmt.Sprintf(
		"🎉 To'lovingiz tasdiqlandi!\n\n"+
			"🎟 Sizning chipta raqamlaringiz: %s\n\n"+
			"Omad tilaymiz!",
		strings.Join(parts, ", "))
	if err := b.SendMessage(purchase.UserID, text, nil); err != nil {
		zap.L().Error("Failed to notify user of approval", zap.Error(err), zap.Int64("user_id", purchase.UserID))
	}
}

func handlePendingPageCallback(b *bot.Bot, callback *tgbotapi.CallbackQuery, parts []string) {
	if !b.IsAdmin(callback.From.ID) {
		b.AnswerCallbackQuery(callback.ID, "Ruxsat yo'q.")
		return
	}
	page := 0
	if len(parts) > 1 {
		page, _ = strconv.Atoi(parts[1])
	}

	pending := b.Store.ListPending()
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	b.AnswerCallbackQuery(callback.ID, "")
	if callback.Message == nil {
		return
	}

	if len(pending) == 0 {
		b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
			"📭 Kutilayotgan to'lovlar yo'q.", nil)
		return
	}

	totalPages := (len(pending) + pendingPageSize - 1) / pendingPageSize
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * pendingPageSize
	end := min(start+pendingPageSize, len(pending))

	var sb strings.Builder
	fmt.Fprintf(&sb, "⏳ Kutilayotgan to'lovlar (%d ta), sahifa %d/%d:\n\n", len(pending), page+1, totalPages)
	for _, p := range pending[start:end] {
		name := p.FullName
		if name == "" {
			name = strconv.FormatInt(p.UserID, 10)
		}
		fmt.Fprintf(&sb, "• %s — %d ta chipta, %s so'm\n  🆔 %s\n  🕐 %s\n",
			name, p.Quantity, formatCurrency(p.Amount), p.ID,
			p.CreatedAt.Format("2006-01-02 15:04"))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("pending_page:%d", page-1)))
	}
	if page < totalPages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("pending_page:%d", page+1)))
	}
	var keyboard *tgbotapi.InlineKeyboardMarkup
	if len(nav) > 0 {
		markup := tgbotapi.NewInlineKeyboardMarkup(nav)
		keyboard = &markup
	}
	b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID, sb.String(), keyboard)
}

func handleApprovedList(b *bot.Bot, chatID int64) {
	approved := b.Store.ListApproved()
	if len(approved) == 0 {
		b.SendMessage(chatID, "📭 Hozircha tasdiqlangan to'lovlar yo'q.", bot.AdminMenuKeyboard())
		return
	}

	sort.Slice(approved, func(i, j int) bool {
		ti, tj := time.Time{}, time.Time{}
		if approved[i].ResolvedAt != nil {
			ti = *approved[i].ResolvedAt
		}
		if approved[j].ResolvedAt != nil {
			tj = *approved[j].ResolvedAt
		}
		return ti.After(tj)
	})

	const limit = 10
	shown := approved
	if len(shown) > limit {
		shown = shown[:limit]
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var sb strings.Builder
	fmt.Fprintf(&sb, "♻️ Tasdiqlangan to'lovlar (%d ta). Bekor qilish uchun tanlang:\n\n", len(approved))
	for _, p := range shown {
		name := p.FullName
		if name == "" {
			name = strconv.FormatInt(p.UserID, 10)
		}
		fmt.Fprintf(&sb, "• %s — %d ta chipta, %s so'm\n", name, p.Quantity, formatCurrency(p.Amount))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("♻️ %s (%d ta)", name, p.Quantity), "cancelap:"+p.ID),
		))
	}

	b.SendMessage(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func handleCancelApprovedCallback(b *bot.Bot, callback *tgbotapi.CallbackQuery, parts []string) {
	if !b.IsAdmin(callback.From.ID) {
		b.AnswerCallbackQuery(callback.ID, "Ruxsat yo'q.")
		return
	}
	if len(parts) < 2 {
		return
	}

	purchase, err := b.Store.CancelApprovedPurchase(parts[1])
	if err != nil {
		zap.L().Error("Failed to cancel purchase", zap.Error(err), zap.String("purchase_id", parts[1]))
		b.AnswerCallbackAlert(callback.ID, "❌ Saqlashda xatolik yuz berdi.")
		return
	}
	if purchase == nil {
		b.AnswerCallbackAlert(callback.ID, "Bu to'lov topilmadi yoki allaqachon bekor qilingan.")
		return
	}

	b.AnswerCallbackAlert(callback.ID,
		fmt.Sprintf("♻️ Bekor qilindi. %d ta chipta qaytarildi.", len(purchase.Tickets)))

	text := fmt.Sprintf(
		"♻️ Afsuski, to'lovingiz bekor qilindi va chiptalaringiz qaytarib olindi.\n"+
			"Savollar bo'lsa menejerga murojaat qiling: %s",
		b.Store.GetManagerContact())
	if err := b.SendMessage(purchase.UserID, text, nil); err != nil {
		zap.L().Error("Failed to notify user of cancellation", zap.Error(err), zap.Int64("user_id", purchase.UserID))
	}
}

func handleAdminExport(b *bot.Bot, chatID int64) {
	rows := b.Store.ExportRows()
	if len(rows) == 0 {
		b.SendMessage(chatID, "📭 Hozircha eksport qilish uchun tasdiqlangan to'lovlar yo'q.", bot.AdminMenuKeyboard())
		return
	}

	workbook, err := export.ApprovedPurchasesWorkbook(rows)
	if err != nil {
		zap.L().Error("Failed to build export workbook", zap.Error(err))
		b.SendMessage(chatID, "❌ Hisobotni tayyorlashda xatolik yuz berdi.", nil)
		return
	}
	defer workbook.Close()

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		zap.L().Error("Failed to encode export workbook", zap.Error(err))
		b.SendMessage(chatID, "❌ Hisobotni tayyorlashda xatolik yuz berdi.", nil)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "lottery_export.xlsx",
		Bytes: buf.Bytes(),
	})
	doc.Caption = "📥 Tasdiqlangan chiptalar bo'yicha hisobot tayyor."
	if _, err := b.API.Send(doc); err != nil {
		zap.L().Error("Failed to send export document", zap.Error(err))
	}
}

func handleSettingsCallback(b *bot.Bot, callback *tgbotapi.CallbackQuery, parts []string) {
	if !b.IsAdmin(callback.From.ID) {
		b.AnswerCallbackQuery(callback.ID, "Ruxsat yo'q.")
		return
	}
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	chatID := callback.From.ID
	if callback.Message != nil {
		chatID = callback.Message.Chat.ID
	}

	switch action {
	case "card":
		b.AnswerCallbackQuery(callback.ID, "")
		b.SetState(callback.From.ID, stateAwaitingCardNumber, nil)
		b.SendMessage(chatID,
			fmt.Sprintf("💳 Joriy karta raqami: %s\nYangi karta raqamini kiriting.", b.Store.GetCardNumber()),
			bot.CancelKeyboard())
	case "manager":
		b.AnswerCallbackQuery(callback.ID, "")
		b.SetState(callback.From.ID, stateAwaitingManager, nil)
		b.SendMessage(chatID,
			fmt.Sprintf("👤 Joriy menejer: %s\nYangi menejer usernameni kiriting.", b.Store.GetManagerContact()),
			bot.CancelKeyboard())
	case "start_message":
		b.AnswerCallbackQuery(callback.ID, "")
		b.SetState(callback.From.ID, stateAwaitingStartMessage, nil)
		b.SendMessage(chatID,
			"📝 Yangi start xabarini yuboring (rasm yoki video bilan bo'lishi mumkin).\n"+
				"Mavjud o'zgaruvchilar: {prize}, {total_tickets}, {remaining_tickets}, {ticket_price}",
			bot.CancelKeyboard())
	case "game_info":
		b.AnswerCallbackQuery(callback.ID, "")
		b.SetState(callback.From.ID, stateAwaitingGameInfo, nil)
		b.SendMessage(chatID,
			"ℹ️ Yangi o'yin haqida xabarini yuboring.\n"+
				"Mavjud o'zgaruvchilar: {prize}, {total_tickets}, {sold_tickets}, {remaining_tickets}, {ticket_price}",
			bot.CancelKeyboard())
	case "backup":
		b.AnswerCallbackQuery(callback.ID, "💾 Zaxira nusxa tayyorlanmoqda...")
		sendBackup(b, chatID)
	case "restore":
		b.AnswerCallbackQuery(callback.ID, "")
		b.SetState(callback.From.ID, stateAwaitingRestoreFile, nil)
		b.SendMessage(chatID,
			"📥 Zaxirani tiklash\n\n"+
				"⚠️ Diqqat! Bu amal joriy barcha ma'lumotlarni o'chirib, "+
				"zaxira nusxadagi ma'lumotlar bilan almashtiradi.\n\n"+
				"Davom etish uchun zaxira faylini (.json) yuboring.",
			bot.CancelKeyboard())
	case "clear":
		b.AnswerCallbackQuery(callback.ID, "")
		confirmClear(b, callback)
	case "clear_confirm":
		b.AnswerCallbackQuery(callback.ID, "🗑 Baza tozalanmoqda...")
		if err := b.Store.ResetAllData(); err != nil {
			zap.L().Error("Failed to reset data", zap.Error(err))
			b.SendMessage(chatID, "❌ Bazani tozalashda xatolik yuz berdi.", nil)
			return
		}
		if callback.Message != nil {
			b.EditMessage(chatID, callback.Message.MessageID,
				"✅ Baza muvaffaqiyatli tozalandi! Barcha ma'lumotlar o'chirildi.", nil)
		}
	case "close":
		b.AnswerCallbackQuery(callback.ID, "")
		if callback.Message != nil {
			b.EditMessage(chatID, callback.Message.MessageID, "⚙️ Sozlamalar yopildi.", nil)
		}
	default:
		b.AnswerCallbackQuery(callback.ID, "")
	}
}

func confirmClear(b *bot.Bot, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	stats := b.Store.GetDetailedStats()
	text := fmt.Sprintf(
		"🗑 Bazani tozalash\n\n"+
			"⚠️ OGOHLANTIRISH! Bu amal quyidagi ma'lumotlarni O'CHIRIB TASHLAYDI:\n\n"+
			"👥 Foydalanuvchilar: %d ta\n"+
			"🎟 Sotilgan chiptalar: %d ta\n"+
			"💰 Daromad: %s so'm\n"+
			"📋 To'lovlar: %d ta\n\n"+
			"❗ Bu amalni ortga qaytarib bo'lmaydi! Davom etishdan oldin zaxira nusxa oling.",
		stats.TotalUsers, stats.TicketsSold, formatCurrency(stats.TotalRevenue), stats.TotalPurchases)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 HA, TOZALASH", "settings:clear_confirm"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Bekor qilish", "settings:close"),
		),
	)
	b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID, text, &keyboard)
}

func sendBackup(b *bot.Bot, chatID int64) {
	raw, err := os.ReadFile(b.Store.Path())
	if err != nil {
		zap.L().Error("Failed to read state file for backup", zap.Error(err))
		b.SendMessage(chatID, "❌ Backup uchun fayl topilmadi.", nil)
		return
	}

	stats := b.Store.GetDetailedStats()
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	caption := fmt.Sprintf(
		"💾 Zaxira nusxa\n"+
			"━━━━━━━━━━━━━━━━━━━━\n"+
			"📅 Sana: %s\n"+
			"👥 Foydalanuvchilar: %d\n"+
			"🎟 Sotilgan chiptalar: %d\n"+
			"💰 Daromad: %s so'm\n"+
			"━━━━━━━━━━━━━━━━━━━━\n"+
			"📥 Tiklash uchun bu faylni botga yuboring.",
		strings.ReplaceAll(timestamp, "_", " "), stats.TotalUsers, stats.TicketsSold,
		formatCurrency(stats.TotalRevenue))

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("lottery_backup_%s.json", timestamp),
		Bytes: raw,
	})
	doc.Caption = caption
	if _, err := b.API.Send(doc); err != nil {
		zap.L().Error("Failed to send backup document", zap.Error(err))
	}
}

func handleRestoreUpload(b *bot.Bot, message *tgbotapi.Message) {
	if message.Document == nil {
		b.SendMessage(message.Chat.ID, "❗ Iltimos, .json fayl yuboring.", nil)
		return
	}
	if !strings.HasSuffix(message.Document.FileName, ".json") {
		b.SendMessage(message.Chat.ID, "❗ Faqat .json formatdagi fayl qabul qilinadi.", nil)
		return
	}

	tmpPath, err := downloadDocument(b, message.Document.FileID)
	if err != nil {
		zap.L().Error("Failed to download backup file", zap.Error(err))
		b.SendMessage(message.Chat.ID, "❌ Faylni yuklab olishda xatolik yuz berdi.", nil)
		return
	}
	defer os.Remove(tmpPath)

	if err := b.Store.RestoreFromBackup(tmpPath); err != nil {
		var formatErr *storage.BackupFormatError
		if errors.As(err, &formatErr) {
			b.SendMessage(message.Chat.ID,
				fmt.Sprintf("❗ Noto'g'ri format. Quyidagi kalitlar topilmadi: %s",
					strings.Join(formatErr.Missing, ", ")), nil)
			return
		}
		zap.L().Error("Failed to restore backup", zap.Error(err))
		b.SendMessage(message.Chat.ID, "❌ Zaxirani tiklashda xatolik yuz berdi.", nil)
		return
	}

	b.ClearState(message.From.ID)
	stats := b.Store.GetDetailedStats()
	b.SendMessage(message.Chat.ID,
		fmt.Sprintf(
			"✅ Zaxira nusxa muvaffaqiyatli tiklandi!\n\n"+
				"📊 Tiklangan ma'lumotlar:\n"+
				"👥 Foydalanuvchilar: %d\n"+
				"🎟 Sotilgan chiptalar: %d\n"+
				"💰 Daromad: %s so'm",
			stats.TotalUsers, stats.TicketsSold, formatCurrency(stats.TotalRevenue)),
		bot.AdminMenuKeyboard())
}

func downloadDocument(b *bot.Bot, fileID string) (string, error) {
	file, err := b.API.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("failed to resolve file: %w", err)
	}

	resp, err := http.Get(file.Link(b.API.Token))
	if err != nil {
		return "", fmt.Errorf("failed to fetch file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch file: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "lottery-restore-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return filepath.Clean(tmp.Name()), nil
}

func handleCardNumberInput(b *bot.Bot, message *tgbotapi.Message) {
	card := strings.TrimSpace(message.Text)
	if card == "" {
		b.SendMessage(message.Chat.ID, "❗ Karta raqamini kiriting.", nil)
		return
	}
	if err := b.Store.SetCardNumber(card); err != nil {
		zap.L().Error("Failed to set card number", zap.Error(err))
		b.SendMessage(message.Chat.ID, "❌ Saqlashda xatolik yuz berdi.", nil)
		return
	}
	b.ClearState(message.From.ID)
	b.SendMessage(message.Chat.ID, "✅ Karta raqami yangilandi: "+card, bot.AdminMenuKeyboard())
}

func handleManagerInput(b *bot.Bot, message *tgbotapi.Message) {
	manager := strings.TrimSpace(message.Text)
	if manager == "" {
		b.SendMessage(message.Chat.ID, "❗ Menejer usernameni kiriting.", nil)
		return
	}
	if !strings.HasPrefix(manager, "@") {
		manager = "@" + manager
	}
	if err := b.Store.SetManagerContact(manager); err != nil {
		zap.L().Error("Failed to set manager contact", zap.Error(err))
		b.SendMessage(message.Chat.ID, "❌ Saqlashda xatolik yuz berdi.", nil)
		return
	}
	b.ClearState(message.From.ID)
	b.SendMessage(message.Chat.ID, "✅ Menejer yangilandi: "+manager, bot.AdminMenuKeyboard())
}

func handleStartMessageInput(b *bot.Bot, message *tgbotapi.Message) {
	text := message.Text
	var media *models.MediaRef
	if len(message.Photo) > 0 {
		media = &models.MediaRef{Type: "photo", FileID: message.Photo[len(message.Photo)-1].FileID}
		text = message.Caption
	} else if message.Video != nil {
		media = &models.MediaRef{Type: "video", FileID: message.Video.FileID}
		text = message.Caption
	}

	if err := b.Store.SetStartMessage(text, media); err != nil {
		replyTemplateError(b, message.Chat.ID, err)
		return
	}
	b.ClearState(message.From.ID)
	b.SendMessage(message.Chat.ID, "✅ Start xabari yangilandi.", bot.AdminMenuKeyboard())
}

func handleGameInfoInput(b *bot.Bot, message *tgbotapi.Message) {
	if err := b.Store.SetGameInfoMessage(message.Text); err != nil {
		replyTemplateError(b, message.Chat.ID, err)
		return
	}
	b.ClearState(message.From.ID)
	b.SendMessage(message.Chat.ID, "✅ O'yin haqida xabari yangilandi.", bot.AdminMenuKeyboard())
}

func handleSubMessageInput(b *bot.Bot, message *tgbotapi.Message) {
	if err := b.Store.SetSubscriptionMessage(message.Text); err != nil {
		replyTemplateError(b, message.Chat.ID, err)
		return
	}
	b.ClearState(message.From.ID)
	b.SendMessage(message.Chat.ID, "✅ Obuna xabari yangilandi.", bot.AdminMenuKeyboard())
	sendSubscriptionMenu(b, message.Chat.ID, "")
}

func replyTemplateError(b *bot.Bot, chatID int64, err error) {
	var placeholderErr *storage.UnknownPlaceholderError
	switch {
	case errors.As(err, &placeholderErr):
		b.SendMessage(chatID,
			fmt.Sprintf("❗ Noma'lum o'zgaruvchi: {%s}. Qayta urinib ko'ring.", placeholderErr.Name), nil)
	case errors.Is(err, storage.ErrEmptyTemplate):
		b.SendMessage(chatID, "❗ Matn bo'sh bo'lishi mumkin emas.", nil)
	default:
		zap.L().Error("Failed to save template", zap.Error(err))
		b.SendMessage(chatID, "❌ Saqlashda xatolik yuz berdi.", nil)
	}
}

func sendSubscriptionMenu(b *bot.Bot, chatID int64, notice string) {
	cfg := b.Store.GetSubscriptionConfig()

	status := "🔕 o'chirilgan"
	if cfg.Enabled {
		status = "🔔 yoqilgan"
	}

	var sb strings.Builder
	if notice != "" {
		sb.WriteString(notice + "\n\n")
	}
	fmt.Fprintf(&sb, "📡 Kanal boshqaruvi\n\nObuna talabi: %s\nKanallar soni: %d\n", status, len(cfg.Channels))
	if len(cfg.Channels) > 0 {
		sb.WriteString("\n")
		for _, channel := range cfg.Channels {
			title := channel.Title
			if title == "" {
				title = channel.ID
			}
			fmt.Fprintf(&sb, "• %s (%s)\n", title, channel.ID)
		}
	}

	b.SendMessage(chatID, sb.String(), bot.SubscriptionManagementKeyboard(cfg.Enabled, len(cfg.Channels)))
}

func handleSubsCallback(b *bot.Bot, callback *tgbotapi.CallbackQuery, parts []string) {
	if !b.IsAdmin(callback.From.ID) {
		b.AnswerCallbackQuery(callback.ID, "Ruxsat yo'q.")
		return
	}
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	chatID := callback.From.ID
	if callback.Message != nil {
		chatID = callback.Message.Chat.ID
	}

	switch action {
	case "toggle":
		cfg := b.Store.GetSubscriptionConfig()
		if err := b.Store.SetSubscriptionEnabled(!cfg.Enabled); err != nil {
			zap.L().Error("Failed to toggle subscription gate", zap.Error(err))
			b.AnswerCallbackAlert(callback.ID, "❌ Saqlashda xatolik yuz berdi.")
			return
		}
		b.AnswerCallbackQuery(callback.ID, "")
		sendSubscriptionMenu(b, chatID, "✅ Obuna talabi o'zgartirildi.")
	case "add":
		b.AnswerCallbackQuery(callback.ID, "")
		b.SetState(callback.From.ID, stateAwaitingChannelAdd, nil)
		b.SendMessage(chatID,
			"➕ Kanal ma'lumotlarini kiriting.\n"+
				"Format: <kanal_id yoki @username> | <sarlavha> | <havola (ixtiyoriy)>",
			bot.CancelKeyboard())
	case "remove":
		b.AnswerCallbackQuery(callback.ID, "")
		b.SetState(callback.From.ID, stateAwaitingChannelDrop, nil)
		cfg := b.Store.GetSubscriptionConfig()
		var sb strings.Builder
		sb.WriteString("➖ O'chiriladigan kanal ID sini kiriting:\n\n")
		for _, channel := range cfg.Channels {
			fmt.Fprintf(&sb, "• %s — %s\n", channel.ID, channel.Title)
		}
		b.SendMessage(chatID, sb.String(), bot.CancelKeyboard())
	case "preview":
		b.AnswerCallbackQuery(callback.ID, "")
		text := b.Store.RenderSubscriptionMessage(nil)
		cfg := b.Store.GetSubscriptionConfig()
		b.SendMessage(chatID, text, bot.SubscriptionPromptKeyboard(cfg.Channels))
	case "message":
		b.AnswerCallbackQuery(callback.ID, "")
		b.SetState(callback.From.ID, stateAwaitingSubMessage, nil)
		b.SendMessage(chatID,
			"📝 Yangi obuna xabarini yuboring. Mavjud o'zgaruvchi: {channels}",
			bot.CancelKeyboard())
	case "close":
		b.AnswerCallbackQuery(callback.ID, "")
		if callback.Message != nil {
			b.EditMessage(chatID, callback.Message.MessageID, "📡 Kanal boshqaruvi yopildi.", nil)
		}
	default:
		b.AnswerCallbackQuery(callback.ID, "")
	}
}

func handleChannelAddInput(b *bot.Bot, message *tgbotapi.Message) {
	parts := strings.Split(message.Text, "|")
	if len(parts) < 2 {
		b.SendMessage(message.Chat.ID,
			"❗ Format: <kanal_id yoki @username> | <sarlavha> | <havola (ixtiyoriy)>", nil)
		return
	}

	channelID := strings.TrimSpace(parts[0])
	title := strings.TrimSpace(parts[1])
	link := ""
	if len(parts) > 2 {
		link = strings.TrimSpace(parts[2])
	}
	if channelID == "" || title == "" {
		b.SendMessage(message.Chat.ID, "❗ Kanal ID va sarlavha bo'sh bo'lishi mumkin emas.", nil)
		return
	}

	if err := b.Store.AddSubscriptionChannel(channelID, title, link); err != nil {
		zap.L().Error("Failed to add subscription channel", zap.Error(err))
		b.SendMessage(message.Chat.ID, "❌ Saqlashda xatolik yuz berdi.", nil)
		return
	}

	b.ClearState(message.From.ID)
	b.SendMessage(message.Chat.ID, "✅ Kanal qo'shildi: "+title, bot.AdminMenuKeyboard())
	sendSubscriptionMenu(b, message.Chat.ID, "")
}

func handleChannelDropInput(b *bot.Bot, message *tgbotapi.Message) {
	channelID := strings.TrimSpace(message.Text)
	removed, err := b.Store.RemoveSubscriptionChannel(channelID)
	if err != nil {
		zap.L().Error("Failed to remove subscription channel", zap.Error(err))
		b.SendMessage(message.Chat.ID, "❌ Saqlashda xatolik yuz berdi.", nil)
		return
	}
	if !removed {
		b.SendMessage(message.Chat.ID, "❗ Bunday kanal topilmadi. Qayta urinib ko'ring.", nil)
		return
	}

	b.ClearState(message.From.ID)
	b.SendMessage(message.Chat.ID, "✅ Kanal o'chirildi.", bot.AdminMenuKeyboard())
	sendSubscriptionMenu(b, message.Chat.ID, "")
}
