package models

// UserProfile is the backend account of a representative
type UserProfile struct {
	ID        int64  `json:"id"`
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Telephone string `json:"telephone,omitempty"`
	WhatsApp  string `json:"whatsapp,omitempty"`
}

// FullName is "Nom Prenom" as displayed in menus
func (u *UserProfile) FullName() string {
	if u == nil {
		return ""
	}
	return u.Nom + " " + u.Prenom
}

// RegistrationRequest is the body of POST /whatsapp/register
type RegistrationRequest struct {
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Telephone string `json:"telephone"`
	WhatsApp  string `json:"whatsapp"`
}

// SubmissionPayload is the body of POST /results/submit
type SubmissionPayload struct {
	ElectionType     ElectionType   `json:"election_type"`
	ArrondissementID *int64         `json:"arrondissement_id"`
	VillageID        *int64         `json:"village_id"`
	PosteVoteID      *int64         `json:"poste_vote_id"`
	Results          map[string]int `json:"results"`
}

// NewSubmissionPayload assembles the payload from the collected wizard data
func NewSubmissionPayload(d *SubmitData) SubmissionPayload {
	f := d.Filter()
	results := map[string]int{"bulletins_nuls": d.BulletinsNuls}
	for _, p := range d.Parties {
		key := PartyKey(p)
		results[key] = d.Votes[key]
	}
	return SubmissionPayload{
		ElectionType:     f.ElectionType,
		ArrondissementID: f.ArrondissementID,
		VillageID:        f.VillageID,
		PosteVoteID:      f.PosteVoteID,
		Results:          results,
	}
}

// SubmissionStatus tells whether a location already has results
type SubmissionStatus struct {
	Exists          bool         `json:"exists"`
	SubmittedBySelf bool         `json:"submitted_by_self"`
	User            *UserProfile `json:"user,omitempty"`
}

// Confirmation is the acknowledgement returned by write endpoints
type Confirmation struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Party is a political party known to the backend
type Party struct {
	ID    int64  `json:"id"`
	Name  string `json:"nom"`
	Sigle string `json:"sigle,omitempty"`
}
