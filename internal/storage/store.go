package storage

import (
	"errors"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

// ErrNotFound is returned when no record matches a lookup
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique field is already taken
var ErrDuplicate = errors.New("duplicate record")

// Store defines the interface for the local representative mirror
type Store interface {
	// Representative operations
	CreateRepresentative(rep *models.Representative) (*models.Representative, error)
	GetRepresentativeByWhatsApp(whatsapp string) (*models.Representative, error)
	IdentificationCodeExists(code string) (bool, error)
	CountRepresentatives() (int64, error)
}
