package models

import (
	"strings"

	"gorm.io/gorm"
)

// Representative is the local mirror of a representative registered through WhatsApp
type Representative struct {
	// Using gorm.Model gives us ID (uint), CreatedAt, UpdatedAt, DeletedAt automatically
	gorm.Model

	BackendID          int64  `json:"backend_id" gorm:"index"`
	Nom                string `json:"nom"`
	Prenoms            string `json:"prenoms"`
	Telephone          string `json:"telephone" gorm:"uniqueIndex"`
	WhatsApp           string `json:"whatsapp" gorm:"column:whatsapp;uniqueIndex"` // normalized WhatsApp id
	IdentificationCode string `json:"identification_code" gorm:"uniqueIndex;size:4"`
	RegisteredVia      string `json:"registered_via" gorm:"default:whatsapp"`
	IsVerified         bool   `json:"is_verified" gorm:"default:true"`
}

// BeforeCreate normalizes names and phone before insert
func (r *Representative) BeforeCreate(tx *gorm.DB) error {
	r.Nom = strings.ToUpper(strings.TrimSpace(r.Nom))
	r.Prenoms = strings.TrimSpace(r.Prenoms)
	if r.RegisteredVia == "" {
		r.RegisteredVia = "whatsapp"
	}
	return nil
}
