package services

import (
	"context"
	"log"
	"strconv"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/metrics"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/utils"
)

func (b *BotService) handleSubmit(ctx context.Context, userID string, step models.Step, text string) []string {
	session := b.sessions.Data(userID)
	d := session.Submit
	if d == nil {
		return b.recoverState(ctx, userID, models.FlowSubmit, step)
	}

	if level, ok := models.LevelForStep(step); ok {
		if level != d.CurrentLevel() {
			return b.recoverState(ctx, userID, models.FlowSubmit, step)
		}
		return b.chooseLocation(ctx, userID, d, text)
	}

	switch step {
	case models.StepElectionType:
		return b.chooseElectionType(ctx, userID, d, text)
	case models.StepBulletinsNuls:
		return b.enterBulletinsNuls(userID, d, text)
	case models.StepPartyVotes:
		return b.enterPartyVotes(userID, d, text)
	case models.StepConfirmation:
		return b.confirm(ctx, userID, d, text)
	case models.StepPVUpload:
		if text == "0" {
			b.sessions.ClearState(userID)
			log.Printf("✅ %s finished without a photo", userID)
			return []string{msgDoneNoPhoto}
		}
		return []string{msgAskPhoto}
	}
	return b.recoverState(ctx, userID, models.FlowSubmit, step)
}

func (b *BotService) chooseElectionType(ctx context.Context, userID string, d *models.SubmitData, text string) []string {
	electionType, ok := models.ElectionTypeFromChoice(text)
	if !ok {
		return []string{msgBadElectionType}
	}
	plan, err := models.PlanFor(electionType, b.posteLevel)
	if err != nil {
		return b.fail(userID, msgUnexpectedError, "election plan", err)
	}

	d.ElectionType = electionType
	d.Levels = plan.Levels
	d.Parties = plan.Parties
	d.LevelIndex = 0
	d.Selected = make(map[models.Level]models.LocationNode, len(plan.Levels))
	return b.enterLevel(ctx, userID, d, 0)
}

// enterLevel fetches the options of d.CurrentLevel() under parentID and
// commits d with the new step. Nothing is committed when the list is empty
// and the user can pick another parent.
func (b *BotService) enterLevel(ctx context.Context, userID string, d *models.SubmitData, parentID int64) []string {
	level := d.CurrentLevel()
	nodes, err := b.navigator.Fetch(ctx, level, parentID, userID)
	if err != nil {
		return b.fail(userID, msgFetchFailed, "fetching "+string(level), err)
	}

	if len(nodes) == 0 {
		log.Printf("⚠️  No %s under %d for %s", level, parentID, userID)
		if level == models.LevelCommune || level == models.LevelArrondissement {
			return []string{emptyLevelMessages[level]}
		}
		b.sessions.ClearState(userID)
		return []string{emptyLevelMessages[level]}
	}

	d.Options = nodes
	b.commit(userID, level.Step(), d)
	return []string{b.navigator.Format(level, nodes)}
}

func (b *BotService) chooseLocation(ctx context.Context, userID string, d *models.SubmitData, text string) []string {
	node, ok := b.navigator.Pick(d.Options, text)
	if !ok {
		return []string{msgBadIndex}
	}

	level := d.CurrentLevel()
	d.Selected[level] = node

	if level == d.TerminalLevel() {
		return b.arbitrate(ctx, userID, d)
	}

	d.LevelIndex++
	return b.enterLevel(ctx, userID, d, node.ID)
}

// arbitrate runs the duplicate-submission check on the terminal location.
// A failed check does not block the submission.
func (b *BotService) arbitrate(ctx context.Context, userID string, d *models.SubmitData) []string {
	level := d.TerminalLevel()

	status, err := b.backend.CheckSubmissionStatus(ctx, d.Filter(), userID)
	switch {
	case err != nil:
		log.Printf("⚠️  Submission status check failed for %s, continuing: %v", userID, err)
	case status.Exists && !status.SubmittedBySelf:
		b.sessions.ClearState(userID)
		metrics.SubmissionsTotal.WithLabelValues("refused_other").Inc()
		log.Printf("🚫 %s refused: %s %d already submitted by someone else", userID, level, d.Selected[level].ID)
		return []string{submittedByOtherText(level, status.User)}
	case status.Exists && !d.IsModification:
		b.sessions.ClearState(userID)
		metrics.SubmissionsTotal.WithLabelValues("refused_self").Inc()
		return []string{alreadySubmittedText(level)}
	}

	d.Options = nil
	b.commit(userID, models.StepBulletinsNuls, d)
	return []string{msgAskBulletinsNul}
}

func (b *BotService) enterBulletinsNuls(userID string, d *models.SubmitData, text string) []string {
	n, ok := parseCount(text)
	if !ok {
		return []string{msgDigitsOnly}
	}
	if len(d.Parties) == 0 {
		return b.fail(userID, msgUnexpectedError, "tally", ErrUnexpectedState)
	}

	d.BulletinsNuls = n
	d.PartyIndex = 0
	d.Votes = make(map[string]int, len(d.Parties))
	b.commit(userID, models.StepPartyVotes, d)
	return []string{partyPrompt(d.Parties[0])}
}

func (b *BotService) enterPartyVotes(userID string, d *models.SubmitData, text string) []string {
	n, ok := parseCount(text)
	if !ok {
		return []string{msgDigitsOnly}
	}
	if d.PartyIndex < 0 || d.PartyIndex >= len(d.Parties) {
		return b.fail(userID, msgUnexpectedError, "tally", ErrUnexpectedState)
	}

	if d.Votes == nil {
		d.Votes = make(map[string]int, len(d.Parties))
	}
	d.Votes[models.PartyKey(d.Parties[d.PartyIndex])] = n

	if d.PartyIndex+1 < len(d.Parties) {
		d.PartyIndex++
		b.commit(userID, models.StepPartyVotes, d)
		return []string{partyPrompt(d.Parties[d.PartyIndex])}
	}

	b.commit(userID, models.StepConfirmation, d)
	return []string{summaryText(d)}
}

func (b *BotService) confirm(ctx context.Context, userID string, d *models.SubmitData, text string) []string {
	if text != "1" {
		b.sessions.ClearState(userID)
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return []string{msgSubmitCancelled}
	}

	if _, err := b.backend.SubmitResults(ctx, models.NewSubmissionPayload(d), userID); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("error").Inc()
		return b.fail(userID, msgSubmitFailed, "results submission", err)
	}

	outcome := "submitted"
	if d.IsModification {
		outcome = "modified"
	}
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	b.commit(userID, models.StepPVUpload, d)
	return []string{msgSubmitSaved}
}

// commit stores d as the user's submission data and moves to step
func (b *BotService) commit(userID string, step models.Step, d *models.SubmitData) {
	b.sessions.Update(userID, func(s *models.Session) {
		s.Flow = models.FlowSubmit
		s.Step = step
		s.Submit = d
	})
}

// maxCount bounds a single tally entry; no polling area comes close
const maxCount = 10_000_000

// parseCount accepts digits only, up to maxCount
func parseCount(text string) (int, bool) {
	if !utils.IsDigits(text) {
		return 0, false
	}
	n, err := strconv.Atoi(text)
	if err != nil || n > maxCount {
		return 0, false
	}
	return n, true
}
