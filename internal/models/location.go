package models

// Level is one tier of the administrative hierarchy. Its value is the
// backend path segment under /locations.
type Level string

const (
	LevelDepartment     Level = "departments"
	LevelCommune        Level = "communes"
	LevelArrondissement Level = "arrondissements"
	LevelVillage        Level = "villages"
	LevelCentre         Level = "centres"
	LevelPoste          Level = "postes"
)

// Step returns the wizard step where this level is chosen
func (l Level) Step() Step {
	switch l {
	case LevelDepartment:
		return StepDepartment
	case LevelCommune:
		return StepCommune
	case LevelArrondissement:
		return StepArrondissement
	case LevelVillage:
		return StepVillage
	case LevelCentre:
		return StepCentreVote
	case LevelPoste:
		return StepPosteVote
	}
	return StepNone
}

// Label is the user-facing name of the level
func (l Level) Label() string {
	switch l {
	case LevelDepartment:
		return "DÉPARTEMENT"
	case LevelCommune:
		return "COMMUNE"
	case LevelArrondissement:
		return "ARRONDISSEMENT"
	case LevelVillage:
		return "VILLAGE/QUARTIER"
	case LevelCentre:
		return "CENTRE DE VOTE"
	case LevelPoste:
		return "POSTE DE VOTE"
	}
	return string(l)
}

// LevelForStep is the inverse of Level.Step
func LevelForStep(step Step) (Level, bool) {
	for _, l := range []Level{LevelDepartment, LevelCommune, LevelArrondissement, LevelVillage, LevelCentre, LevelPoste} {
		if l.Step() == step {
			return l, true
		}
	}
	return "", false
}

// LocationNode is one entry of a hierarchy level as returned by the backend.
// Postes come back with poste_nom and their parent names instead of nom.
type LocationNode struct {
	ID         int64  `json:"id"`
	Name       string `json:"nom,omitempty"`
	PosteName  string `json:"poste_nom,omitempty"`
	VillageNom string `json:"village_nom,omitempty"`
	CentreNom  string `json:"centre_nom,omitempty"`
}

// DisplayName returns the best name available for the node
func (n LocationNode) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.PosteName
}

// LocationFilter identifies a submission location for status checks,
// result submission and photo upload
type LocationFilter struct {
	ElectionType     ElectionType `json:"election_type"`
	ArrondissementID *int64       `json:"arrondissement_id"`
	VillageID        *int64       `json:"village_id"`
	PosteVoteID      *int64       `json:"poste_vote_id"`
}
