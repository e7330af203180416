package services

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/metrics"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

// BotService is the conversation engine. It reads the user's session, runs
// the handler for the current flow/step and returns the replies to send.
// Calls for one user must be serialized by the caller (see Dispatcher).
type BotService struct {
	sessions   *SessionManager
	backend    Backend
	navigator  *Navigator
	mirror     Mirror
	posteLevel bool
}

// BotOptions tunes the conversation engine
type BotOptions struct {
	// PosteLevel routes locales submissions through centre and poste
	// instead of village/quartier
	PosteLevel bool
}

// NewBotService creates the conversation engine. mirror may be nil.
func NewBotService(sessions *SessionManager, backend Backend, navigator *Navigator, mirror Mirror, opts BotOptions) *BotService {
	return &BotService{
		sessions:   sessions,
		backend:    backend,
		navigator:  navigator,
		mirror:     mirror,
		posteLevel: opts.PosteLevel,
	}
}

// ProcessMessage handles one inbound message and returns the replies.
// It never fails: errors become a notice to the user.
func (b *BotService) ProcessMessage(ctx context.Context, msg models.InboundMessage) (replies []string) {
	userID := msg.UserID

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic while handling message from %s: %v\n%s", userID, r, debug.Stack())
			b.sessions.ClearState(userID)
			replies = []string{msgUnexpectedError}
		}
	}()

	if msg.HasMedia {
		metrics.InboundMessagesTotal.WithLabelValues("media").Inc()
		return b.handleMedia(ctx, msg)
	}
	metrics.InboundMessagesTotal.WithLabelValues("text").Inc()

	text := strings.TrimSpace(msg.Body)
	flow := b.sessions.GetFlow(userID)
	step := b.sessions.GetStep(userID)

	// "0" cancels everywhere except where it is a value
	if text == "0" && !acceptsZero(flow, step) {
		b.sessions.ClearState(userID)
		log.Printf("🚫 %s cancelled at %s/%s", userID, flow, step)
		return []string{msgCancelled}
	}

	switch flow {
	case models.FlowWelcome:
		return b.handleDisclaimer(ctx, userID, step, text)
	case models.FlowNone, models.FlowMainMenu:
		return b.handleMainMenu(ctx, userID, flow, text)
	case models.FlowRegistration:
		return b.handleRegistration(ctx, userID, step, text)
	case models.FlowSubmit:
		return b.handleSubmit(ctx, userID, step, text)
	}
	return b.recoverState(ctx, userID, flow, step)
}

func acceptsZero(flow models.Flow, step models.Step) bool {
	if flow != models.FlowSubmit {
		return false
	}
	switch step {
	case models.StepBulletinsNuls, models.StepPartyVotes, models.StepPVUpload:
		return true
	}
	return false
}

// recoverState handles a flow/step pair no handler knows: back to the menu
func (b *BotService) recoverState(ctx context.Context, userID string, flow models.Flow, step models.Step) []string {
	log.Printf("⚠️  %v for %s: %s/%s", ErrUnexpectedState, userID, flow, step)
	return b.showMainMenu(userID, b.lookupUser(ctx, userID))
}

func (b *BotService) handleDisclaimer(ctx context.Context, userID string, step models.Step, text string) []string {
	if step != models.StepDisclaimer {
		return b.recoverState(ctx, userID, models.FlowWelcome, step)
	}
	if text != "1" {
		return []string{msgDisclaimerReprompt}
	}

	b.sessions.Update(userID, func(s *models.Session) {
		s.DisclaimerAccepted = true
	})
	log.Printf("✅ Disclaimer accepted by %s", userID)
	return b.showMainMenu(userID, b.lookupUser(ctx, userID))
}

func (b *BotService) handleMainMenu(ctx context.Context, userID string, flow models.Flow, text string) []string {
	user := b.lookupUser(ctx, userID)

	// A message without a flow only brings up the menu
	if flow == models.FlowMainMenu {
		switch {
		case user == nil && text == "1":
			return b.startRegistration(userID)
		case user != nil && text == "1":
			return b.startSubmit(userID, user, false)
		case user != nil && text == "2":
			return b.startSubmit(userID, user, true)
		}
	}
	return b.showMainMenu(userID, user)
}

// showMainMenu shows the disclaimer to unknown users who have not accepted
// it yet, the main menu otherwise
func (b *BotService) showMainMenu(userID string, user *models.UserProfile) []string {
	if user == nil && !b.sessions.Data(userID).DisclaimerAccepted {
		b.sessions.SetState(userID, models.FlowWelcome, models.StepDisclaimer)
		return []string{msgDisclaimer}
	}

	b.sessions.SoftReset(userID)
	b.sessions.SetState(userID, models.FlowMainMenu, models.StepSelection)
	return []string{mainMenuText(user)}
}

// lookupUser authenticates userID. Any failure counts as unknown user.
func (b *BotService) lookupUser(ctx context.Context, userID string) *models.UserProfile {
	user, err := b.backend.Authenticate(ctx, userID)
	if err != nil {
		log.Printf("⚠️  Authentication check failed for %s, treating as new user: %v", userID, err)
		return nil
	}
	return user
}

func (b *BotService) startSubmit(userID string, user *models.UserProfile, isModification bool) []string {
	b.sessions.Update(userID, func(s *models.Session) {
		s.Flow = models.FlowSubmit
		s.Step = models.StepElectionType
		s.Registration = nil
		s.Submit = &models.SubmitData{
			BackendUserID:  user.ID,
			IsModification: isModification,
		}
	})
	log.Printf("🗳️  %s started a submission (modification=%t)", userID, isModification)
	return []string{electionTypeMenu(user)}
}

// fail clears the session and returns the notice
func (b *BotService) fail(userID, notice, op string, err error) []string {
	log.Printf("❌ %s failed for %s: %v", op, userID, err)
	if IsAuthFailure(err) {
		b.backend.Logout(userID)
	}
	b.sessions.ClearState(userID)
	return []string{notice}
}

func (b *BotService) handleMedia(ctx context.Context, msg models.InboundMessage) []string {
	userID := msg.UserID
	if b.sessions.GetFlow(userID) != models.FlowSubmit || b.sessions.GetStep(userID) != models.StepPVUpload {
		return []string{msgNoPhotoExpected}
	}

	// One photo per submission, whatever the outcome
	session := b.sessions.Data(userID)
	defer b.sessions.ClearState(userID)

	if session.Submit == nil {
		log.Printf("⚠️  %v for %s: photo without submission data", ErrUnexpectedState, userID)
		return []string{msgPhotoFailed}
	}
	if msg.Media == nil {
		log.Printf("❌ Photo from %s has no media to download", userID)
		return []string{msgPhotoFailed}
	}

	media, err := msg.Media.FetchMedia(ctx)
	if err != nil {
		log.Printf("❌ Could not download photo from %s: %v", userID, err)
		return []string{msgPhotoFailed}
	}

	filename := media.Filename
	if filename == "" {
		filename = fmt.Sprintf("pv_%d.jpg", time.Now().UnixMilli())
	}
	contentType := media.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if _, err := b.backend.UploadAttachment(ctx, media.Data, filename, contentType, session.Submit.Filter(), userID); err != nil {
		log.Printf("❌ Photo upload failed for %s: %v", userID, err)
		return []string{msgPhotoFailed}
	}
	metrics.SubmissionsTotal.WithLabelValues("photo").Inc()
	return []string{msgPhotoSaved}
}
