package services

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

func TestSessionManager_UnknownUser(t *testing.T) {
	sm := NewSessionManager(time.Hour, clockwork.NewFakeClock())

	assert.Equal(t, models.FlowNone, sm.GetFlow("22997000000"))
	assert.Equal(t, models.StepNone, sm.GetStep("22997000000"))

	data := sm.Data("22997000000")
	assert.Equal(t, "22997000000", data.UserID)
	assert.Nil(t, data.Submit)
	assert.Equal(t, 0, sm.Count())
}

func TestSessionManager_SetState(t *testing.T) {
	sm := NewSessionManager(time.Hour, clockwork.NewFakeClock())

	sm.SetState("u1", models.FlowRegistration, models.StepNom)

	assert.Equal(t, models.FlowRegistration, sm.GetFlow("u1"))
	assert.Equal(t, models.StepNom, sm.GetStep("u1"))
	assert.Equal(t, 1, sm.Count())
}

func TestSessionManager_DataIsACopy(t *testing.T) {
	sm := NewSessionManager(time.Hour, clockwork.NewFakeClock())
	sm.Update("u1", func(s *models.Session) {
		s.Submit = &models.SubmitData{Votes: map[string]int{"upr": 1}}
	})

	data := sm.Data("u1")
	data.Submit.Votes["upr"] = 99
	data.Flow = models.FlowSubmit

	again := sm.Data("u1")
	assert.Equal(t, 1, again.Submit.Votes["upr"])
	assert.Equal(t, models.FlowNone, again.Flow)
}

func TestSessionManager_ClearState(t *testing.T) {
	sm := NewSessionManager(time.Hour, clockwork.NewFakeClock())
	sm.Update("u1", func(s *models.Session) {
		s.Flow = models.FlowSubmit
		s.Step = models.StepBulletinsNuls
		s.DisclaimerAccepted = true
	})

	sm.ClearState("u1")

	assert.Equal(t, models.FlowNone, sm.GetFlow("u1"))
	assert.False(t, sm.Data("u1").DisclaimerAccepted)
	assert.Equal(t, 0, sm.Count())

	// clearing twice is harmless
	sm.ClearState("u1")
}

func TestSessionManager_SoftResetKeepsConsent(t *testing.T) {
	sm := NewSessionManager(time.Hour, clockwork.NewFakeClock())
	sm.Update("u1", func(s *models.Session) {
		s.Flow = models.FlowSubmit
		s.Step = models.StepPartyVotes
		s.DisclaimerAccepted = true
		s.Submit = &models.SubmitData{BulletinsNuls: 3}
	})

	sm.SoftReset("u1")

	data := sm.Data("u1")
	assert.Equal(t, models.FlowNone, data.Flow)
	assert.Equal(t, models.StepNone, data.Step)
	assert.Nil(t, data.Submit)
	assert.True(t, data.DisclaimerAccepted)
}

func TestSessionManager_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sm := NewSessionManager(30*time.Minute, clock)
	sm.Update("u1", func(s *models.Session) {
		s.Flow = models.FlowSubmit
		s.Step = models.StepDepartment
		s.DisclaimerAccepted = true
	})
	sm.SetState("u2", models.FlowMainMenu, models.StepSelection)

	clock.Advance(20 * time.Minute)
	sm.SetState("u2", models.FlowMainMenu, models.StepSelection)
	clock.Advance(11 * time.Minute)

	// u1 is idle for 31 minutes, u2 for 11
	assert.Equal(t, models.FlowNone, sm.GetFlow("u1"))
	assert.Equal(t, models.FlowMainMenu, sm.GetFlow("u2"))
	assert.Equal(t, 1, sm.Count())

	assert.Equal(t, 1, sm.EvictExpired())
	assert.Equal(t, 1, sm.Count())
}

func TestSessionManager_ExpiredSessionRestartsFresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sm := NewSessionManager(time.Minute, clock)
	sm.Update("u1", func(s *models.Session) {
		s.Flow = models.FlowSubmit
		s.DisclaimerAccepted = true
	})

	clock.Advance(2 * time.Minute)
	sm.SetState("u1", models.FlowMainMenu, models.StepSelection)

	data := sm.Data("u1")
	assert.Equal(t, models.FlowMainMenu, data.Flow)
	assert.False(t, data.DisclaimerAccepted)
}

func TestSessionManager_ZeroTTLNeverExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sm := NewSessionManager(0, clock)
	sm.SetState("u1", models.FlowSubmit, models.StepCommune)

	clock.Advance(1000 * time.Hour)

	assert.Equal(t, models.StepCommune, sm.GetStep("u1"))
	assert.Equal(t, 0, sm.EvictExpired())
}

func TestSessionManager_UpdateTouchesLastActive(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sm := NewSessionManager(time.Hour, clock)
	sm.SetState("u1", models.FlowSubmit, models.StepCommune)

	clock.Advance(10 * time.Minute)
	sm.Update("u1", func(s *models.Session) {})

	data := sm.Data("u1")
	require.Equal(t, clock.Now(), data.LastActive)
	assert.Equal(t, clock.Now().Add(-10*time.Minute), data.CreatedAt)
}
