package services

import (
	"context"
	"errors"
	"log"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/utils"
)

func (b *BotService) startRegistration(userID string) []string {
	b.sessions.Update(userID, func(s *models.Session) {
		s.Flow = models.FlowRegistration
		s.Step = models.StepNom
		s.Registration = &models.RegistrationData{}
		s.Submit = nil
	})
	return []string{msgAskNom}
}

func (b *BotService) handleRegistration(ctx context.Context, userID string, step models.Step, text string) []string {
	if b.sessions.Data(userID).Registration == nil {
		return b.recoverState(ctx, userID, models.FlowRegistration, step)
	}

	switch step {
	case models.StepNom:
		if text == "" {
			return []string{msgEmptyAnswer}
		}
		b.sessions.Update(userID, func(s *models.Session) {
			s.Registration.Nom = text
			s.Step = models.StepPrenom
		})
		return []string{msgAskPrenom}

	case models.StepPrenom:
		if text == "" {
			return []string{msgEmptyAnswer}
		}
		b.sessions.Update(userID, func(s *models.Session) {
			s.Registration.Prenom = text
			s.Step = models.StepTelephone
		})
		return []string{msgAskTelephone}

	case models.StepTelephone:
		phone, err := validatePhone(text)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				log.Printf("⚠️  Registration input from %s rejected: %s %s", userID, ve.Field, ve.Message)
			}
			return []string{msgBadPhone}
		}
		if b.backend.CheckPhoneExists(ctx, phone) {
			log.Printf("📱 Phone %s already registered, asked by %s", phone, userID)
			return []string{msgPhoneTaken}
		}
		b.sessions.Update(userID, func(s *models.Session) {
			s.Registration.Telephone = phone
		})
		return b.completeRegistration(ctx, userID)
	}

	return b.recoverState(ctx, userID, models.FlowRegistration, step)
}

func validatePhone(input string) (string, error) {
	phone, ok := utils.NormalizePhone(input)
	if !ok {
		return "", &ValidationError{Field: "telephone", Message: "must start with 229 and have at least 11 digits"}
	}
	return phone, nil
}

// completeRegistration creates the account, mirrors it locally and goes
// straight to the first submit step
func (b *BotService) completeRegistration(ctx context.Context, userID string) []string {
	reg := b.sessions.Data(userID).Registration
	req := models.RegistrationRequest{
		Nom:       reg.Nom,
		Prenom:    reg.Prenom,
		Telephone: reg.Telephone,
		WhatsApp:  userID,
	}

	user, err := b.backend.RegisterUser(ctx, req)
	if err != nil {
		return b.fail(userID, msgRegisterFail, "registration", err)
	}

	if b.mirror != nil {
		if _, err := b.mirror.Mirror(ctx, user, req); err != nil {
			log.Printf("⚠️  Could not mirror representative %s locally: %v", userID, err)
		}
	}

	b.sessions.SoftReset(userID)
	b.sessions.Update(userID, func(s *models.Session) {
		s.DisclaimerAccepted = true
	})

	replies := []string{registrationSuccessText(user)}
	return append(replies, b.startSubmit(userID, user, false)...)
}
