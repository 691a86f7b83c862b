package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"lottery-bot/internal/models"
)

// Default message templates. These seed a fresh store and back the
// reset-to-default admin actions.
const (
	DefaultStartTemplate = "Lotareya botiga xush kelibsiz!\n\n" +
		"🎁 Sovrin: {prize}\n" +
		"🎟 Jami chipta: {total_tickets}\n" +
		"✅ Qolgan chipta: {remaining_tickets}\n" +
		"💸 Chipta narxi: {ticket_price} so'm\n\n" +
		"Quyidagi tugmalar orqali kerakli bo'limni tanlang."

	DefaultSubscriptionMessage = "Botdan to'liq foydalanish uchun quyidagi kanallarga obuna bo'ling:\n" +
		"{channels}\n\n" +
		"Obuna bo'lgach, '✅ Tekshirish' tugmasini bosing."

	DefaultGameInfoMessage = "ℹ️ Lotareya shartlari:\n" +
		"• Sovrin: {prize}\n" +
		"• Jami chipta: {total_tickets} ta\n" +
		"• Sotilgan chiptalar: {sold_tickets} ta\n" +
		"• Qolgan chiptalar: {remaining_tickets} ta\n" +
		"• Chipta narxi: {ticket_price} so'm\n\n" +
		"To'lovingiz admin tomonidan tekshirilgach, chipta raqamlari yuboriladi."

	DefaultManagerContact = "@menejer_1w"
)

// storeData is the full persisted state blob. Its JSON shape is the on-disk
// backup/restore contract and must stay stable.
type storeData struct {
	AvailableTickets []int                         `json:"available_tickets"`
	Pending          map[string]*models.Purchase   `json:"pending"`
	Approved         map[string]*models.Purchase   `json:"approved"`
	Rejected         map[string]*models.Purchase   `json:"rejected"`
	UserTickets      map[string][]int              `json:"user_tickets"`
	Users            map[string]*models.UserRecord `json:"users"`
	Meta             models.Meta                   `json:"meta"`
	Subscriptions    models.SubscriptionConfig     `json:"subscriptions"`
}

// Store owns the ticket pool, purchase lifecycle, user analytics, and bot
// configuration. All access is serialized by a single coarse lock; every
// mutation is synchronously written through to the JSON state file before
// the operation returns.
type Store struct {
	mu           sync.Mutex
	path         string
	totalTickets int
	data         *storeData
	now          func() time.Time
}

// New opens the store at path, creating and seeding the state file if it does
// not exist yet. totalTickets fixes the full pool range 1..N.
func New(path string, totalTickets int, defaultCardNumber string) (*Store, error) {
	s := &Store{
		path:         path,
		totalTickets: totalTickets,
		now:          time.Now,
	}

	data, err := s.load(defaultCardNumber)
	if err != nil {
		return nil, err
	}
	s.data = data

	return s, nil
}

// Path returns the location of the persisted state file. The backup handler
// reads it directly to produce a downloadable snapshot; nothing else may.
func (s *Store) Path() string {
	return s.path
}

// TotalTickets returns the configured pool size N.
func (s *Store) TotalTickets() int {
	return s.totalTickets
}

func (s *Store) load(defaultCardNumber string) (*storeData, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		data := s.defaultPayload(defaultCardNumber)
		if err := s.persist(data); err != nil {
			return nil, err
		}
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	data := &storeData{}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	ensureDefaults(data, s.totalTickets, defaultCardNumber)

	// Tidy up the pool to guard against manual edits of the file.
	data.AvailableTickets = normalizeTickets(data.AvailableTickets)

	return data, nil
}

func (s *Store) defaultPayload(defaultCardNumber string) *storeData {
	return &storeData{
		AvailableTickets: fullRange(s.totalTickets),
		Pending:          make(map[string]*models.Purchase),
		Approved:         make(map[string]*models.Purchase),
		Rejected:         make(map[string]*models.Purchase),
		UserTickets:      make(map[string][]int),
		Users:            make(map[string]*models.UserRecord),
		Meta: models.Meta{
			StartMessage:        models.StartMessage{Text: DefaultStartTemplate},
			SubscriptionMessage: DefaultSubscriptionMessage,
			GameInfoMessage:     DefaultGameInfoMessage,
			CardNumber:          defaultCardNumber,
			ManagerContact:      DefaultManagerContact,
		},
	}
}

// ensureDefaults fills in anything missing from an older or hand-edited
// state file so the rest of the store never sees nil maps or empty templates.
func ensureDefaults(data *storeData, totalTickets int, defaultCardNumber string) {
	if data.AvailableTickets == nil {
		data.AvailableTickets = fullRange(totalTickets)
	}
	if data.Pending == nil {
		data.Pending = make(map[string]*models.Purchase)
	}
	if data.Approved == nil {
		data.Approved = make(map[string]*models.Purchase)
	}
	if data.Rejected == nil {
		data.Rejected = make(map[string]*models.Purchase)
	}
	if data.UserTickets == nil {
		data.UserTickets = make(map[string][]int)
	}
	if data.Users == nil {
		data.Users = make(map[string]*models.UserRecord)
	}
	if data.Meta.StartMessage.Text == "" {
		data.Meta.StartMessage.Text = DefaultStartTemplate
	}
	if data.Meta.SubscriptionMessage == "" {
		data.Meta.SubscriptionMessage = DefaultSubscriptionMessage
	}
	if data.Meta.GameInfoMessage == "" {
		data.Meta.GameInfoMessage = DefaultGameInfoMessage
	}
	if data.Meta.CardNumber == "" {
		data.Meta.CardNumber = defaultCardNumber
	}
	if data.Meta.ManagerContact == "" {
		data.Meta.ManagerContact = DefaultManagerContact
	}
	if data.Subscriptions.Channels == nil {
		data.Subscriptions.Channels = []models.SubscriptionChannel{}
	}
}

// persist writes the full state blob to disk. The write goes to a temp file
// in the same directory followed by a rename, so a crash mid-write cannot
// truncate the previous snapshot. Callers must hold s.mu.
func (s *Store) persist(data *storeData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

func (s *Store) persistLocked() error {
	return s.persist(s.data)
}

func fullRange(n int) []int {
	tickets := make([]int, n)
	for i := range tickets {
		tickets[i] = i + 1
	}
	return tickets
}

// normalizeTickets sorts and deduplicates a ticket list.
func normalizeTickets(tickets []int) []int {
	seen := make(map[int]struct{}, len(tickets))
	out := make([]int, 0, len(tickets))
	for _, t := range tickets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func copyInts(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}

// copyPurchase returns a deep copy so callers can never mutate store state.
func copyPurchase(p *models.Purchase) models.Purchase {
	out := *p
	out.Tickets = copyInts(p.Tickets)
	if p.ResolvedAt != nil {
		t := *p.ResolvedAt
		out.ResolvedAt = &t
	}
	if p.CancelledAt != nil {
		t := *p.CancelledAt
		out.CancelledAt = &t
	}
	if p.AdminMessage != nil {
		ref := *p.AdminMessage
		out.AdminMessage = &ref
	}
	return out
}

func copyUserRecord(r *models.UserRecord) models.UserRecord {
	out := *r
	out.History = make([]models.HistoryEntry, len(r.History))
	for i, entry := range r.History {
		out.History[i] = entry
		out.History[i].Tickets = copyInts(entry.Tickets)
	}
	return out
}
