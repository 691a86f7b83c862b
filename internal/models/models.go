package models

import "time"

type PurchaseStatus string

const (
	StatusPending   PurchaseStatus = "pending"
	StatusApproved  PurchaseStatus = "approved"
	StatusRejected  PurchaseStatus = "rejected"
	StatusCancelled PurchaseStatus = "cancelled"
)

type ReceiptKind string

const (
	ReceiptPhoto    ReceiptKind = "photo"
	ReceiptDocument ReceiptKind = "document"
)

// AdminMessageRef points at the admin chat message that carries the receipt
// for a pending purchase, so the decision handler can edit it in place.
type AdminMessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

type Purchase struct {
	ID            string           `json:"purchase_id"`
	UserID        int64            `json:"user_id"`
	Username      string           `json:"username,omitempty"`
	FullName      string           `json:"full_name,omitempty"`
	PhoneNumber   string           `json:"phone_number,omitempty"`
	Quantity      int              `json:"quantity"`
	TicketPrice   int64            `json:"ticket_price"`
	Amount        int64            `json:"amount"`
	ReceiptFileID string           `json:"receipt_file_id"`
	ReceiptKind   ReceiptKind      `json:"receipt_type"`
	CreatedAt     time.Time        `json:"created_at"`
	Status        PurchaseStatus   `json:"status"`
	Tickets       []int            `json:"tickets,omitempty"`
	ResolvedAt    *time.Time       `json:"resolved_at,omitempty"`
	CancelledAt   *time.Time       `json:"cancelled_at,omitempty"`
	AdminMessage  *AdminMessageRef `json:"admin_message,omitempty"`
}

// HistoryEntry is one resolved purchase event in a user's append-only history.
type HistoryEntry struct {
	PurchaseID string         `json:"purchase_id"`
	Tickets    []int          `json:"tickets"`
	Amount     int64          `json:"amount"`
	Quantity   int            `json:"quantity"`
	ResolvedAt time.Time      `json:"resolved_at"`
	Status     PurchaseStatus `json:"status,omitempty"`
}

type UserRecord struct {
	UserID       int64          `json:"user_id"`
	Username     string         `json:"username,omitempty"`
	FullName     string         `json:"full_name,omitempty"`
	PhoneNumber  string         `json:"phone_number,omitempty"`
	FirstSeen    time.Time      `json:"first_seen"`
	LastActive   time.Time      `json:"last_active"`
	Purchases    int            `json:"purchases"`
	TotalTickets int            `json:"total_tickets"`
	TotalSpent   int64          `json:"total_spent"`
	History      []HistoryEntry `json:"history"`
}

// MediaRef is an optional photo or video attached to the start message.
type MediaRef struct {
	Type   string `json:"type"`
	FileID string `json:"file_id"`
}

type StartMessage struct {
	Text  string    `json:"text"`
	Media *MediaRef `json:"media,omitempty"`
}

// Meta holds the message templates and payment/contact singletons.
type Meta struct {
	StartMessage        StartMessage `json:"start_message"`
	SubscriptionMessage string       `json:"subscription_message"`
	GameInfoMessage     string       `json:"game_info_message"`
	CardNumber          string       `json:"card_number"`
	ManagerContact      string       `json:"manager_contact"`
}

type SubscriptionChannel struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Link  string `json:"link,omitempty"`
}

type SubscriptionConfig struct {
	Enabled  bool                  `json:"enabled"`
	Channels []SubscriptionChannel `json:"channels"`
}

// Summary is the compact dashboard view of the ticket ledger.
type Summary struct {
	Total        int
	Sold         int
	Remaining    int
	PendingCount int
	Revenue      int64
}

type TopUser struct {
	UserID   int64
	FullName string
	Username string
	Tickets  int
	Spent    int64
}

// DetailedStats is a consistent snapshot of every aggregate the admin
// dashboard reports. Computed under the store lock in one pass.
type DetailedStats struct {
	TotalTickets      int
	RemainingTickets  int
	TicketsSold       int
	TotalRevenue      int64
	PendingAmount     int64
	PendingCount      int
	ApprovedCount     int
	RejectedCount     int
	TotalUsers        int
	ActiveUsers24h    int
	NewUsers24h       int
	TotalPurchases    int
	AvgTicketsPerUser float64
	AvgSpendPerUser   float64
	TopUsers          []TopUser
}

// ExportRow is one line of the approved-purchases report.
type ExportRow struct {
	PurchaseID  string
	FullName    string
	Username    string
	PhoneNumber string
	Quantity    int
	Tickets     []int
	Amount      int64
	ResolvedAt  time.Time
}

// FlowState tracks a user's position inside a multi-step conversation
// (buy flow, admin text inputs).
type FlowState struct {
	UserID      int64
	State       string
	TempData    map[string]interface{}
	LastUpdated time.Time
}
