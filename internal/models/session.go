package models

import "time"

// Flow is the wizard a user is currently in
type Flow string

const (
	FlowNone         Flow = ""
	FlowWelcome      Flow = "welcome"
	FlowMainMenu     Flow = "main_menu"
	FlowRegistration Flow = "registration"
	FlowSubmit       Flow = "submit"
)

// Step is the prompt a user is answering inside a flow
type Step string

const (
	StepNone Step = ""

	StepDisclaimer Step = "disclaimer"
	StepSelection  Step = "selection"

	StepNom       Step = "nom"
	StepPrenom    Step = "prenom"
	StepTelephone Step = "telephone"

	StepElectionType   Step = "election_type"
	StepDepartment     Step = "department"
	StepCommune        Step = "commune"
	StepArrondissement Step = "arrondissement"
	StepVillage        Step = "village"
	StepCentreVote     Step = "centre_vote"
	StepPosteVote      Step = "poste_vote"
	StepBulletinsNuls  Step = "bulletins_nuls"
	StepPartyVotes     Step = "party_votes"
	StepConfirmation   Step = "confirmation"
	StepPVUpload       Step = "pv_upload"
)

// Session is the conversation state of one WhatsApp user.
// Only the data variant matching Flow is meaningful.
type Session struct {
	UserID             string            `json:"user_id"`
	Flow               Flow              `json:"flow"`
	Step               Step              `json:"step"`
	DisclaimerAccepted bool              `json:"disclaimer_accepted"`
	Registration       *RegistrationData `json:"registration,omitempty"`
	Submit             *SubmitData       `json:"submit,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	LastActive         time.Time         `json:"last_active"`
}

// RegistrationData accumulates the registration wizard answers
type RegistrationData struct {
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Telephone string `json:"telephone"`
}

// SubmitData accumulates everything the submit wizard collects
type SubmitData struct {
	BackendUserID  int64        `json:"backend_user_id"`
	IsModification bool         `json:"is_modification"`
	ElectionType   ElectionType `json:"election_type"`

	// Levels is the hierarchy walk for ElectionType, LevelIndex the level
	// currently being chosen and Options the list shown for it.
	Levels     []Level                `json:"levels"`
	LevelIndex int                    `json:"level_index"`
	Options    []LocationNode         `json:"options"`
	Selected   map[Level]LocationNode `json:"selected"`

	BulletinsNuls int            `json:"bulletins_nuls"`
	Parties       []string       `json:"parties"`
	PartyIndex    int            `json:"party_index"`
	Votes         map[string]int `json:"votes"`
}

// Clone returns a deep copy so callers never share maps with the store
func (s Session) Clone() Session {
	out := s
	if s.Registration != nil {
		reg := *s.Registration
		out.Registration = &reg
	}
	if s.Submit != nil {
		sub := *s.Submit
		sub.Levels = append([]Level(nil), s.Submit.Levels...)
		sub.Options = append([]LocationNode(nil), s.Submit.Options...)
		sub.Parties = append([]string(nil), s.Submit.Parties...)
		if s.Submit.Selected != nil {
			sub.Selected = make(map[Level]LocationNode, len(s.Submit.Selected))
			for k, v := range s.Submit.Selected {
				sub.Selected[k] = v
			}
		}
		if s.Submit.Votes != nil {
			sub.Votes = make(map[string]int, len(s.Submit.Votes))
			for k, v := range s.Submit.Votes {
				sub.Votes[k] = v
			}
		}
		out.Submit = &sub
	}
	return out
}

// TerminalLevel is the last level of the hierarchy walk
func (d *SubmitData) TerminalLevel() Level {
	if len(d.Levels) == 0 {
		return ""
	}
	return d.Levels[len(d.Levels)-1]
}

// CurrentLevel is the level the user is choosing right now
func (d *SubmitData) CurrentLevel() Level {
	if d.LevelIndex < 0 || d.LevelIndex >= len(d.Levels) {
		return ""
	}
	return d.Levels[d.LevelIndex]
}

// Filter builds the location filter anchored on the terminal level.
// Exactly one location id is set.
func (d *SubmitData) Filter() LocationFilter {
	f := LocationFilter{ElectionType: d.ElectionType}
	node, ok := d.Selected[d.TerminalLevel()]
	if !ok {
		return f
	}
	id := node.ID
	switch d.TerminalLevel() {
	case LevelArrondissement:
		f.ArrondissementID = &id
	case LevelVillage:
		f.VillageID = &id
	case LevelPoste:
		f.PosteVoteID = &id
	}
	return f
}

// Total is bulletins nuls plus every party count
func (d *SubmitData) Total() int {
	total := d.BulletinsNuls
	for _, p := range d.Parties {
		total += d.Votes[PartyKey(p)]
	}
	return total
}
