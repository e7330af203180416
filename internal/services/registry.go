package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/storage"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/utils"
)

// maxCodeAttempts bounds the search for a free identification code
const maxCodeAttempts = 20

// Mirror records a freshly registered representative locally
type Mirror interface {
	Mirror(ctx context.Context, profile *models.UserProfile, req models.RegistrationRequest) (*models.Representative, error)
}

// Registry keeps the local representative records with their 4-digit
// identification codes
type Registry struct {
	store    storage.Store
	generate func() (string, error)
}

var _ Mirror = (*Registry)(nil)

// NewRegistry creates a registry over store
func NewRegistry(store storage.Store) *Registry {
	return &Registry{store: store, generate: utils.GenerateIdentificationCode}
}

// Mirror stores the representative with a code no other representative holds.
// A WhatsApp id that is already mirrored returns the existing record.
func (r *Registry) Mirror(ctx context.Context, profile *models.UserProfile, req models.RegistrationRequest) (*models.Representative, error) {
	if existing, err := r.store.GetRepresentativeByWhatsApp(req.WhatsApp); err == nil {
		return existing, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	code, err := r.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	rep := &models.Representative{
		Nom:                req.Nom,
		Prenoms:            req.Prenom,
		Telephone:          req.Telephone,
		WhatsApp:           req.WhatsApp,
		IdentificationCode: code,
		RegisteredVia:      "whatsapp",
		IsVerified:         true,
	}
	if profile != nil {
		rep.BackendID = profile.ID
	}

	created, err := r.store.CreateRepresentative(rep)
	if err != nil {
		return nil, err
	}
	log.Printf("🪪 Representative %s mirrored with code %s", created.WhatsApp, created.IdentificationCode)
	return created, nil
}

func (r *Registry) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := r.generate()
		if err != nil {
			return "", err
		}
		exists, err := r.store.IdentificationCodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free identification code after %d attempts", maxCodeAttempts)
}
