package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"lottery-bot/internal/models"
)

// BackupFormatError reports a restore document that is missing required
// top-level fields.
type BackupFormatError struct {
	Missing []string
}

func (e *BackupFormatError) Error() string {
	return fmt.Sprintf("backup document is missing required fields: %s", strings.Join(e.Missing, ", "))
}

// requiredBackupKeys must all be present for a document to be restorable.
var requiredBackupKeys = []string{"available_tickets", "users", "approved", "pending"}

// ResetAllData wipes the pool back to the full range and empties all purchase
// and user collections. Templates, card number, manager contact, and the
// subscription configuration survive a reset. Irreversible.
func (s *Store) ResetAllData() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.AvailableTickets = fullRange(s.totalTickets)
	s.data.Pending = make(map[string]*models.Purchase)
	s.data.Approved = make(map[string]*models.Purchase)
	s.data.Rejected = make(map[string]*models.Purchase)
	s.data.UserTickets = make(map[string][]int)
	s.data.Users = make(map[string]*models.UserRecord)

	return s.persistLocked()
}

// RestoreFromBackup replaces the entire state with the snapshot at path.
// The document must carry at least the pool, user, approved, and pending
// collections; otherwise a BackupFormatError is returned and nothing
// changes. On success the new state is written through immediately.
func (s *Store) RestoreFromBackup(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("failed to parse backup file: %w", err)
	}

	var missing []string
	for _, key := range requiredBackupKeys {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &BackupFormatError{Missing: missing}
	}

	data := &storeData{}
	if err := json.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("failed to decode backup file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ensureDefaults(data, s.totalTickets, s.data.Meta.CardNumber)
	data.AvailableTickets = normalizeTickets(data.AvailableTickets)

	s.data = data
	return s.persistLocked()
}
