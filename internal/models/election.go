package models

import (
	"fmt"
	"strings"
)

// ElectionType selects the hierarchy depth and the party set
type ElectionType string

const (
	ElectionLegislatives ElectionType = "legislatives"
	ElectionCommunales   ElectionType = "communales"
	ElectionLocales      ElectionType = "locales"
)

// ElectionTypeFromChoice maps the menu answer "1".."3" to an election type
func ElectionTypeFromChoice(choice string) (ElectionType, bool) {
	switch choice {
	case "1":
		return ElectionLegislatives, true
	case "2":
		return ElectionCommunales, true
	case "3":
		return ElectionLocales, true
	}
	return "", false
}

// HierarchyPlan is the ordered list of levels to walk and the parties to
// tally for an election type
type HierarchyPlan struct {
	Levels  []Level
	Parties []string
}

var (
	baseLevels = []Level{LevelDepartment, LevelCommune, LevelArrondissement}

	baseParties         = []string{"UPR", "BR", "FCBE"}
	legislativesParties = []string{"UPR", "BR", "FCBE", "MOELE BENIN", "LD"}
)

// PlanFor returns the hierarchy plan for an election type. posteLevel routes
// locales to centre then poste instead of village/quartier.
func PlanFor(t ElectionType, posteLevel bool) (HierarchyPlan, error) {
	levels := append([]Level(nil), baseLevels...)
	switch t {
	case ElectionLegislatives:
		return HierarchyPlan{Levels: levels, Parties: append([]string(nil), legislativesParties...)}, nil
	case ElectionCommunales:
		return HierarchyPlan{Levels: levels, Parties: append([]string(nil), baseParties...)}, nil
	case ElectionLocales:
		if posteLevel {
			levels = append(levels, LevelCentre, LevelPoste)
		} else {
			levels = append(levels, LevelVillage)
		}
		return HierarchyPlan{Levels: levels, Parties: append([]string(nil), baseParties...)}, nil
	}
	return HierarchyPlan{}, fmt.Errorf("unknown election type %q", t)
}

// PartyKey is the results payload key for a party name ("MOELE BENIN" -> "moele_benin")
func PartyKey(party string) string {
	return strings.ReplaceAll(strings.ToLower(party), " ", "_")
}
