package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

// MemoryStore holds all data in memory for development and tests
type MemoryStore struct {
	representatives map[string]*models.Representative // by WhatsApp id
	codes           map[string]string                 // identification code -> WhatsApp id
	phones          map[string]string                 // telephone -> WhatsApp id

	repMu sync.RWMutex

	// Counter for ID generation
	repCounter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		representatives: make(map[string]*models.Representative),
		codes:           make(map[string]string),
		phones:          make(map[string]string),
	}
}

// CreateRepresentative stores rep, enforcing the same unique fields as the database
func (m *MemoryStore) CreateRepresentative(rep *models.Representative) (*models.Representative, error) {
	m.repMu.Lock()
	defer m.repMu.Unlock()

	if _, exists := m.representatives[rep.WhatsApp]; exists {
		return nil, fmt.Errorf("%w: whatsapp %s", ErrDuplicate, rep.WhatsApp)
	}
	if _, exists := m.codes[rep.IdentificationCode]; exists {
		return nil, fmt.Errorf("%w: identification code %s", ErrDuplicate, rep.IdentificationCode)
	}
	if _, exists := m.phones[rep.Telephone]; exists {
		return nil, fmt.Errorf("%w: telephone %s", ErrDuplicate, rep.Telephone)
	}

	m.repCounter++
	stored := *rep
	stored.ID = m.repCounter
	stored.Nom = strings.ToUpper(strings.TrimSpace(stored.Nom))
	stored.Prenoms = strings.TrimSpace(stored.Prenoms)
	if stored.RegisteredVia == "" {
		stored.RegisteredVia = "whatsapp"
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.representatives[stored.WhatsApp] = &stored
	m.codes[stored.IdentificationCode] = stored.WhatsApp
	m.phones[stored.Telephone] = stored.WhatsApp

	out := stored
	return &out, nil
}

// GetRepresentativeByWhatsApp finds a representative by normalized WhatsApp id
func (m *MemoryStore) GetRepresentativeByWhatsApp(whatsapp string) (*models.Representative, error) {
	m.repMu.RLock()
	defer m.repMu.RUnlock()

	rep, exists := m.representatives[whatsapp]
	if !exists {
		return nil, fmt.Errorf("%w: whatsapp %s", ErrNotFound, whatsapp)
	}
	out := *rep
	return &out, nil
}

// IdentificationCodeExists reports whether code is already assigned
func (m *MemoryStore) IdentificationCodeExists(code string) (bool, error) {
	m.repMu.RLock()
	defer m.repMu.RUnlock()

	_, exists := m.codes[code]
	return exists, nil
}

// CountRepresentatives returns the number of stored representatives
func (m *MemoryStore) CountRepresentatives() (int64, error) {
	m.repMu.RLock()
	defer m.repMu.RUnlock()

	return int64(len(m.representatives)), nil
}
