package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/utils"
)

// LocationSource fetches one level of the administrative hierarchy
type LocationSource interface {
	GetLocations(ctx context.Context, level models.Level, parentID int64, userID string) ([]models.LocationNode, error)
}

// Navigator fetches hierarchy levels and renders them as numbered lists
type Navigator struct {
	source LocationSource
}

// NewNavigator creates a navigator over source
func NewNavigator(source LocationSource) *Navigator {
	return &Navigator{source: source}
}

var levelIcons = map[models.Level]string{
	models.LevelDepartment:     "📍",
	models.LevelCommune:        "🏙️",
	models.LevelArrondissement: "🏢",
	models.LevelVillage:        "🏡",
	models.LevelCentre:         "🏫",
	models.LevelPoste:          "🗳️",
}

// Fetch returns the nodes of level under parentID, in backend order
func (n *Navigator) Fetch(ctx context.Context, level models.Level, parentID int64, userID string) ([]models.LocationNode, error) {
	return n.source.GetLocations(ctx, level, parentID, userID)
}

// Format renders nodes as a 1-based numbered list under the level heading
func (n *Navigator) Format(level models.Level, nodes []models.LocationNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *Sélectionnez votre %s :*\n\n", levelIcons[level], level.Label())
	for i, node := range nodes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, node.DisplayName())
		if level == models.LevelPoste && (node.VillageNom != "" || node.CentreNom != "") {
			fmt.Fprintf(&b, "   📍 %s - %s\n", node.VillageNom, node.CentreNom)
		}
	}
	b.WriteString("\n👉 Répondez avec le *numéro* correspondant (ou 0 pour annuler)")
	return b.String()
}

// Pick maps a typed 1-based index back to its node
func (n *Navigator) Pick(nodes []models.LocationNode, input string) (models.LocationNode, bool) {
	input = strings.TrimSpace(input)
	if !utils.IsDigits(input) {
		return models.LocationNode{}, false
	}
	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(nodes) {
		return models.LocationNode{}, false
	}
	return nodes[idx-1], true
}
