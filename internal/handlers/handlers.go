package handlers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lottery-bot/internal/bot"
	"lottery-bot/internal/models"
)

// Buy-flow states.
const (
	stateAwaitingQuantity = "awaiting_quantity"
	stateAwaitingContact  = "awaiting_contact"
	stateAwaitingReceipt  = "awaiting_receipt"
)

func formatCurrency(amount int64) string {
	raw := strconv.FormatInt(amount, 10)
	var parts []string
	for len(raw) > 3 {
		parts = append([]string{raw[len(raw)-3:]}, parts...)
		raw = raw[:len(raw)-3]
	}
	parts = append([]string{raw}, parts...)
	return strings.Join(parts, " ")
}

var nonDigits = regexp.MustCompile(`\D`)

// normalizePhone reduces a manually typed number to +<digits>, defaulting
// bare nine-digit numbers to the +998 prefix. Empty result means invalid.
func normalizePhone(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) < 9 {
		return ""
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "+") {
		return "+" + digits
	}
	if strings.HasPrefix(digits, "998") && len(digits) == 12 {
		return "+" + digits
	}
	if len(digits) == 9 {
		return "+998" + digits
	}
	return "+" + digits
}

func fullName(user *tgbotapi.User) string {
	if user.LastName != "" {
		return user.FirstName + " " + user.LastName
	}
	return user.FirstName
}

// ensureSubscription enforces the channel-subscription gate. Returns true
// when the user may proceed; otherwise the gate prompt has been sent.
func ensureSubscription(b *bot.Bot, userID, chatID int64) bool {
	cfg := b.Store.GetSubscriptionConfig()
	if !cfg.Enabled || len(cfg.Channels) == 0 {
		return true
	}

	var missing []models.SubscriptionChannel
	for _, channel := range cfg.Channels {
		if !isChannelMember(b, channel, userID) {
			missing = append(missing, channel)
		}
	}
	if len(missing) == 0 {
		return true
	}

	text := b.Store.RenderSubscriptionMessage(missing)
	keyboard := bot.SubscriptionPromptKeyboard(missing)
	if err := b.SendMessage(chatID, text, keyboard); err != nil {
		zap.L().Error("Failed to send subscription prompt", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return false
}

func isChannelMember(b *bot.Bot, channel models.SubscriptionChannel, userID int64) bool {
	chatCfg := tgbotapi.ChatConfigWithUser{UserID: userID}
	if strings.HasPrefix(channel.ID, "@") {
		chatCfg.SuperGroupUsername = channel.ID
	} else {
		chatID, err := strconv.ParseInt(channel.ID, 10, 64)
		if err != nil {
			return false
		}
		chatCfg.ChatID = chatID
	}

	member, err := b.API.GetChatMember(tgbotapi.GetChatMemberConfig{ChatConfigWithUser: chatCfg})
	if err != nil {
		return false
	}

	switch member.Status {
	case "creator", "administrator", "member":
		return true
	}
	return member.IsMember
}

func HandleStart(b *bot.Bot, message *tgbotapi.Message) {
	user := message.From
	if err := b.Store.RegisterUser(user.ID, user.UserName, fullName(user), ""); err != nil {
		zap.L().Error("Failed to register user", zap.Error(err), zap.Int64("user_id", user.ID))
	}
	b.ClearState(user.ID)

	if b.IsAdmin(user.ID) {
		sendAdminHome(b, message.Chat.ID)
		return
	}

	if !ensureSubscription(b, user.ID, message.Chat.ID) {
		return
	}
	sendStartContent(b, message.Chat.ID)
}

func sendStartContent(b *bot.Bot, chatID int64) {
	content := b.Store.RenderStartContent(b.Settings.PrizeName, formatCurrency(b.Settings.TicketPrice))
	if err := b.SendStartContent(chatID, content, bot.MainMenuKeyboard()); err != nil {
		zap.L().Error("Failed to send start content", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

// HandleMessage routes non-command private messages: menu buttons first,
// then whatever multi-step flow the user is in.
func HandleMessage(b *bot.Bot, message *tgbotapi.Message) {
	userID := message.From.ID

	switch message.Text {
	case bot.ButtonBuyTicket:
		handleBuyEntry(b, message)
		return
	case bot.ButtonMyTickets:
		handleMyTickets(b, message)
		return
	case bot.ButtonGameInfo:
		handleGameInfo(b, message)
		return
	case bot.ButtonCancel:
		HandleCancel(b, message)
		return
	}

	if b.IsAdmin(userID) && handleAdminMessage(b, message) {
		return
	}

	state := b.GetState(userID)
	if state == nil {
		return
	}

	switch state.State {
	case stateAwaitingQuantity:
		handleQuantityInput(b, message, state)
	case stateAwaitingContact:
		handleContactInput(b, message, state)
	case stateAwaitingReceipt:
		handleReceiptInput(b, message, state)
	default:
		b.ClearState(userID)
	}
}

func handleBuyEntry(b *bot.Bot, message *tgbotapi.Message) {
	userID := message.From.ID
	if !ensureSubscription(b, userID, message.Chat.ID) {
		return
	}

	remaining := b.Store.RemainingTickets()
	if remaining == 0 {
		b.SendMessage(message.Chat.ID,
			"😔 Kechirasiz, barcha chiptalar sotib bo'lingan. Natijalarni kuzatishda davom eting!",
			bot.MainMenuKeyboard())
		return
	}

	b.SetState(userID, stateAwaitingQuantity, nil)
	b.SendMessage(message.Chat.ID,
		fmt.Sprintf("🎟 Nechta chipta sotib olmoqchisiz? (1 dan %d gacha son kiriting)", remaining),
		bot.CancelKeyboard())
}

func handleQuantityInput(b *bot.Bot, message *tgbotapi.Message, state *models.FlowState) {
	text := strings.TrimSpace(message.Text)
	quantity, err := strconv.Atoi(text)
	if err != nil {
		b.SendMessage(message.Chat.ID, "❗ Iltimos, faqat son kiriting.", nil)
		return
	}

	remaining := b.Store.RemainingTickets()
	if quantity < 1 || quantity > remaining {
		b.SendMessage(message.Chat.ID,
			fmt.Sprintf("❗ Mavjud chipta soni: %d. Shunga mos ravishda son kiriting.", remaining), nil)
		return
	}

	payable := int64(quantity) * b.Settings.TicketPrice
	state.TempData["quantity"] = quantity
	state.TempData["payable"] = payable

	profile := b.Store.GetUserProfile(message.From.ID)
	if profile != nil && profile.PhoneNumber != "" {
		state.TempData["phone_number"] = profile.PhoneNumber
		state.State = stateAwaitingReceipt
		sendPaymentInstructions(b, message.Chat.ID, payable)
		return
	}

	state.State = stateAwaitingContact
	b.SendMessage(message.Chat.ID,
		"📞 Iltimos, bog'lanish uchun telefon raqamingizni yuboring.",
		bot.RequestContactKeyboard())
}

func sendPaymentInstructions(b *bot.Bot, chatID int64, payable int64) {
	instructions := fmt.Sprintf(
		"💳 To'lov qilish uchun quyidagi ma'lumotlardan foydalaning:\n"+
			"• Karta raqami: %s\n"+
			"• To'lov summasi: %s so'm\n\n"+
			"To'lovni amalga oshirganingizdan so'ng, chekni botga rasm yoki fayl sifatida yuboring.",
		b.Store.GetCardNumber(), formatCurrency(payable))
	b.SendMessage(chatID, instructions, bot.CancelKeyboard())
}

func handleContactInput(b *bot.Bot, message *tgbotapi.Message, state *models.FlowState) {
	if message.Contact != nil && message.Contact.UserID != 0 && message.Contact.UserID != message.From.ID {
		b.SendMessage(message.Chat.ID, "❗ Faqat o'zingizning raqamingizni yuborishingiz mumkin.", nil)
		return
	}

	raw := strings.TrimSpace(message.Text)
	if message.Contact != nil {
		raw = message.Contact.PhoneNumber
	}

	phone := normalizePhone(raw)
	if phone == "" {
		b.SendMessage(message.Chat.ID, "❗ Telefon raqamni to'g'ri kiriting yoki tugma orqali yuboring.", nil)
		return
	}

	state.TempData["phone_number"] = phone
	user := message.From
	if err := b.Store.RegisterUser(user.ID, user.UserName, fullName(user), phone); err != nil {
		zap.L().Error("Failed to register user", zap.Error(err), zap.Int64("user_id", user.ID))
	}

	payable, _ := state.TempData["payable"].(int64)
	if payable == 0 {
		payable = b.Settings.TicketPrice
	}
	state.State = stateAwaitingReceipt
	sendPaymentInstructions(b, message.Chat.ID, payable)
}

func extractReceipt(message *tgbotapi.Message) (string, models.ReceiptKind) {
	if len(message.Photo) > 0 {
		return message.Photo[len(message.Photo)-1].FileID, models.ReceiptPhoto
	}
	if message.Document != nil {
		return message.Document.FileID, models.ReceiptDocument
	}
	return "", ""
}

func handleReceiptInput(b *bot.Bot, message *tgbotapi.Message, state *models.FlowState) {
	fileID, kind := extractReceipt(message)
	if fileID == "" {
		b.SendMessage(message.Chat.ID, "Iltimos, chekni rasm yoki fayl shaklida yuboring.", nil)
		return
	}

	user := message.From
	quantity, _ := state.TempData["quantity"].(int)
	if quantity == 0 {
		quantity = 1
	}
	phone, _ := state.TempData["phone_number"].(string)
	if phone == "" {
		if profile := b.Store.GetUserProfile(user.ID); profile != nil {
			phone = profile.PhoneNumber
		}
	}

	if err := b.Store.RegisterUser(user.ID, user.UserName, fullName(user), phone); err != nil {
		zap.L().Error("Failed to register user", zap.Error(err), zap.Int64("user_id", user.ID))
	}

	purchaseID, err := b.Store.CreatePendingPurchase(
		user.ID, user.UserName, fullName(user), phone,
		quantity, b.Settings.TicketPrice, fileID, kind)
	if err != nil {
		zap.L().Error("Failed to create pending purchase", zap.Error(err), zap.Int64("user_id", user.ID))
		b.SendMessage(message.Chat.ID, "❌ Xatolik yuz berdi. Keyinroq qayta urinib ko'ring.", bot.MainMenuKeyboard())
		b.ClearState(user.ID)
		return
	}

	notifyAdminOfReceipt(b, user, purchaseID, quantity, phone, fileID, kind)

	b.SendMessage(message.Chat.ID,
		"✅ Rahmat! Chekingiz adminga yuborildi. Tasdiqlangach, chipta raqamingiz yuboriladi.",
		bot.MainMenuKeyboard())
	b.ClearState(user.ID)
}

func notifyAdminOfReceipt(b *bot.Bot, user *tgbotapi.User, purchaseID string, quantity int, phone, fileID string, kind models.ReceiptKind) {
	usernameLine := "📨 Username: mavjud emas\n"
	if user.UserName != "" {
		usernameLine = fmt.Sprintf("📨 Username: @%s\n", user.UserName)
	}
	phoneLine := ""
	if phone != "" {
		phoneLine = fmt.Sprintf("📞 Telefon: %s\n", phone)
	}
	caption := fmt.Sprintf(
		"🆕 Yangi to'lov cheki keldi!\n\n"+
			"🆔 Purchase ID: %s\n"+
			"👤 Foydalanuvchi: %s (ID: %d)\n"+
			"%s%s"+
			"🎟 Chiptalar soni: %d\n"+
			"💰 To'lov: %s so'm",
		purchaseID, fullName(user), user.ID, usernameLine, phoneLine,
		quantity, formatCurrency(int64(quantity)*b.Settings.TicketPrice))

	keyboard := bot.AdminDecisionKeyboard(purchaseID)

	var sent tgbotapi.Message
	var err error
	if kind == models.ReceiptPhoto {
		msg := tgbotapi.NewPhoto(b.Settings.AdminID, tgbotapi.FileID(fileID))
		msg.Caption = caption
		msg.ReplyMarkup = keyboard
		sent, err = b.API.Send(msg)
	} else {
		msg := tgbotapi.NewDocument(b.Settings.AdminID, tgbotapi.FileID(fileID))
		msg.Caption = caption
		msg.ReplyMarkup = keyboard
		sent, err = b.API.Send(msg)
	}
	if err != nil {
		zap.L().Error("Failed to forward receipt to admin", zap.Error(err), zap.String("purchase_id", purchaseID))
		return
	}

	if err := b.Store.SetAdminMessage(purchaseID, sent.Chat.ID, sent.MessageID); err != nil {
		zap.L().Error("Failed to pin admin message", zap.Error(err), zap.String("purchase_id", purchaseID))
	}
}

// HandleCancel aborts whatever flow the user is in and restores their menu.
func HandleCancel(b *bot.Bot, message *tgbotapi.Message) {
	b.ClearState(message.From.ID)
	if b.IsAdmin(message.From.ID) {
		b.SendMessage(message.Chat.ID, "⛔ Jarayon bekor qilindi.", bot.AdminMenuKeyboard())
		return
	}
	b.SendMessage(message.Chat.ID, "⛔ Jarayon bekor qilindi.", bot.MainMenuKeyboard())
}

func handleMyTickets(b *bot.Bot, message *tgbotapi.Message) {
	if !ensureSubscription(b, message.From.ID, message.Chat.ID) {
		return
	}

	tickets := b.Store.GetUserTickets(message.From.ID)
	if len(tickets) == 0 {
		b.SendMessage(message.Chat.ID, "📭 Sizda hali tasdiqlangan chiptalar yo'q.", nil)
		return
	}

	parts := make([]string, len(tickets))
	for i, t := range tickets {
		parts[i] = strconv.Itoa(t)
	}
	b.SendMessage(message.Chat.ID,
		"🎟 Sizga biriktirilgan chiptalar:\n"+strings.Join(parts, ", "),
		bot.MainMenuKeyboard())
}

func handleGameInfo(b *bot.Bot, message *tgbotapi.Message) {
	if !ensureSubscription(b, message.From.ID, message.Chat.ID) {
		return
	}

	text := b.Store.RenderGameInfoMessage(b.Settings.PrizeName, formatCurrency(b.Settings.TicketPrice))
	b.SendMessage(message.Chat.ID, text, bot.MainMenuKeyboard())
}

// HandleCallbackQuery routes inline-button presses by their verb prefix.
func HandleCallbackQuery(b *bot.Bot, callback *tgbotapi.CallbackQuery) {
	parts := strings.SplitN(callback.Data, ":", 2)
	verb := parts[0]

	switch verb {
	case "check_subscription":
		handleSubscriptionCheck(b, callback)
	case "approve", "reject":
		handleDecisionCallback(b, callback, verb, parts)
	case "cancelap":
		handleCancelApprovedCallback(b, callback, parts)
	case "pending_page":
		handlePendingPageCallback(b, callback, parts)
	case "settings":
		handleSettingsCallback(b, callback, parts)
	case "subs":
		handleSubsCallback(b, callback, parts)
	default:
		b.AnswerCallbackQuery(callback.ID, "")
	}
}

func handleSubscriptionCheck(b *bot.Bot, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := userID
	if callback.Message != nil {
		chatID = callback.Message.Chat.ID
	}

	cfg := b.Store.GetSubscriptionConfig()
	var missing []models.SubscriptionChannel
	if cfg.Enabled {
		for _, channel := range cfg.Channels {
			if !isChannelMember(b, channel, userID) {
				missing = append(missing, channel)
			}
		}
	}

	if len(missing) > 0 {
		titles := make([]string, len(missing))
		for i, channel := range missing {
			if channel.Title != "" {
				titles[i] = channel.Title
			} else {
				titles[i] = channel.ID
			}
		}
		b.AnswerCallbackAlert(callback.ID, "Avval quyidagi kanallarga obuna bo'ling: "+strings.Join(titles, ", "))
		return
	}

	b.AnswerCallbackQuery(callback.ID, "")
	if callback.Message != nil {
		b.EditMessage(chatID, callback.Message.MessageID,
			"✅ Rahmat! Siz barcha kanallarga obuna bo'lgansiz. Endi botdan foydalanishingiz mumkin.", nil)
	}
	sendStartContent(b, chatID)
}
