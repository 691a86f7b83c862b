package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"lottery-bot/internal/models"
)

// ErrEmptyTemplate rejects empty or whitespace-only template text.
var ErrEmptyTemplate = errors.New("template text cannot be empty")

// UnknownPlaceholderError reports a placeholder outside a template's
// allow-list, naming the offending placeholder.
type UnknownPlaceholderError struct {
	Name string
}

func (e *UnknownPlaceholderError) Error() string {
	return fmt.Sprintf("unknown placeholder: %s", e.Name)
}

// Allowed placeholder sets per template kind.
var (
	startPlaceholders        = []string{"prize", "total_tickets", "remaining_tickets", "ticket_price"}
	gameInfoPlaceholders     = []string{"prize", "total_tickets", "sold_tickets", "remaining_tickets", "ticket_price"}
	subscriptionPlaceholders = []string{"channels"}
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// validateTemplate checks the text against the allowed placeholder set at
// write time, so a bad template can never reach rendering.
func validateTemplate(text string, allowed []string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyTemplate
	}

	permitted := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		permitted[name] = struct{}{}
	}

	for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if _, ok := permitted[match[1]]; !ok {
			return &UnknownPlaceholderError{Name: match[1]}
		}
	}
	return nil
}

func renderTemplate(text string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for name, value := range values {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// SetStartMessage replaces the welcome template and its optional media
// attachment after validating the placeholders.
func (s *Store) SetStartMessage(text string, media *models.MediaRef) error {
	if err := validateTemplate(text, startPlaceholders); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Meta.StartMessage = models.StartMessage{Text: text, Media: media}
	return s.persistLocked()
}

// RenderStartContent substitutes live pool values into the welcome template
// and returns it together with any attached media.
func (s *Store) RenderStartContent(prize, ticketPrice string) models.StartMessage {
	s.mu.Lock()
	cfg := s.data.Meta.StartMessage
	remaining := len(s.data.AvailableTickets)
	s.mu.Unlock()

	text := renderTemplate(cfg.Text, map[string]string{
		"prize":             prize,
		"total_tickets":     fmt.Sprintf("%d", s.totalTickets),
		"remaining_tickets": fmt.Sprintf("%d", remaining),
		"ticket_price":      ticketPrice,
	})

	out := models.StartMessage{Text: text}
	if cfg.Media != nil {
		media := *cfg.Media
		out.Media = &media
	}
	return out
}

// SetGameInfoMessage replaces the lottery-conditions template.
func (s *Store) SetGameInfoMessage(text string) error {
	if err := validateTemplate(text, gameInfoPlaceholders); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Meta.GameInfoMessage = text
	return s.persistLocked()
}

// ResetGameInfoMessage restores the default lottery-conditions template and
// returns it for display.
func (s *Store) ResetGameInfoMessage() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Meta.GameInfoMessage = DefaultGameInfoMessage
	if err := s.persistLocked(); err != nil {
		return "", err
	}
	return DefaultGameInfoMessage, nil
}

// RenderGameInfoMessage substitutes live pool values into the
// lottery-conditions template.
func (s *Store) RenderGameInfoMessage(prize, ticketPrice string) string {
	s.mu.Lock()
	template := s.data.Meta.GameInfoMessage
	remaining := len(s.data.AvailableTickets)
	s.mu.Unlock()

	sold := max(0, s.totalTickets-remaining)
	return renderTemplate(template, map[string]string{
		"prize":             prize,
		"total_tickets":     fmt.Sprintf("%d", s.totalTickets),
		"sold_tickets":      fmt.Sprintf("%d", sold),
		"remaining_tickets": fmt.Sprintf("%d", remaining),
		"ticket_price":      ticketPrice,
	})
}

// SetSubscriptionMessage replaces the subscription-gate template.
func (s *Store) SetSubscriptionMessage(text string) error {
	if err := validateTemplate(text, subscriptionPlaceholders); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Meta.SubscriptionMessage = text
	return s.persistLocked()
}

func (s *Store) GetSubscriptionMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Meta.SubscriptionMessage
}

func (s *Store) GetGameInfoMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Meta.GameInfoMessage
}

// RenderSubscriptionMessage formats the gate message for the given channels.
// Pass nil to use the configured channel list.
func (s *Store) RenderSubscriptionMessage(channels []models.SubscriptionChannel) string {
	s.mu.Lock()
	template := s.data.Meta.SubscriptionMessage
	if channels == nil {
		channels = make([]models.SubscriptionChannel, len(s.data.Subscriptions.Channels))
		copy(channels, s.data.Subscriptions.Channels)
	}
	s.mu.Unlock()

	block := "• Kanallar qo'shilmagan"
	if len(channels) > 0 {
		lines := make([]string, 0, len(channels))
		for _, channel := range channels {
			title := channel.Title
			if title == "" {
				title = channel.ID
			}
			lines = append(lines, "• "+title)
		}
		block = strings.Join(lines, "\n")
	}

	return renderTemplate(template, map[string]string{"channels": block})
}

func (s *Store) SetCardNumber(cardNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Meta.CardNumber = strings.TrimSpace(cardNumber)
	return s.persistLocked()
}

func (s *Store) GetCardNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Meta.CardNumber
}

func (s *Store) SetManagerContact(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Meta.ManagerContact = strings.TrimSpace(username)
	return s.persistLocked()
}

func (s *Store) GetManagerContact() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Meta.ManagerContact == "" {
		return DefaultManagerContact
	}
	return s.data.Meta.ManagerContact
}

// GetSubscriptionConfig returns a copy of the subscription-gate settings.
func (s *Store) GetSubscriptionConfig() models.SubscriptionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := make([]models.SubscriptionChannel, len(s.data.Subscriptions.Channels))
	copy(channels, s.data.Subscriptions.Channels)
	return models.SubscriptionConfig{
		Enabled:  s.data.Subscriptions.Enabled,
		Channels: channels,
	}
}

func (s *Store) SetSubscriptionEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Subscriptions.Enabled = enabled
	return s.persistLocked()
}

// AddSubscriptionChannel registers a required channel, updating it in place
// if the ID is already present.
func (s *Store) AddSubscriptionChannel(channelID, title, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, channel := range s.data.Subscriptions.Channels {
		if channel.ID == channelID {
			s.data.Subscriptions.Channels[i].Title = title
			s.data.Subscriptions.Channels[i].Link = link
			return s.persistLocked()
		}
	}

	s.data.Subscriptions.Channels = append(s.data.Subscriptions.Channels, models.SubscriptionChannel{
		ID:    channelID,
		Title: title,
		Link:  link,
	})
	return s.persistLocked()
}

// RemoveSubscriptionChannel drops a required channel. Returns false when the
// ID was not configured (nothing persisted).
func (s *Store) RemoveSubscriptionChannel(channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := s.data.Subscriptions.Channels
	filtered := channels[:0]
	for _, channel := range channels {
		if channel.ID != channelID {
			filtered = append(filtered, channel)
		}
	}
	if len(filtered) == len(channels) {
		return false, nil
	}

	s.data.Subscriptions.Channels = filtered
	if err := s.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}
