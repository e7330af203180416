package storage

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

// DatabaseStore persists representatives in PostgreSQL through gorm
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store backed by db
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// CreateRepresentative inserts rep
func (d *DatabaseStore) CreateRepresentative(rep *models.Representative) (*models.Representative, error) {
	if err := d.db.Create(rep).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return nil, fmt.Errorf("failed to create representative: %w", err)
	}
	return rep, nil
}

// GetRepresentativeByWhatsApp finds a representative by normalized WhatsApp id
func (d *DatabaseStore) GetRepresentativeByWhatsApp(whatsapp string) (*models.Representative, error) {
	var rep models.Representative
	err := d.db.Where("whatsapp = ?", whatsapp).First(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: whatsapp %s", ErrNotFound, whatsapp)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get representative: %w", err)
	}
	return &rep, nil
}

// IdentificationCodeExists reports whether code is already assigned
func (d *DatabaseStore) IdentificationCodeExists(code string) (bool, error) {
	var count int64
	err := d.db.Model(&models.Representative{}).
		Where("identification_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check identification code: %w", err)
	}
	return count > 0, nil
}

// CountRepresentatives returns the number of stored representatives
func (d *DatabaseStore) CountRepresentatives() (int64, error) {
	var count int64
	if err := d.db.Model(&models.Representative{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count representatives: %w", err)
	}
	return count, nil
}
