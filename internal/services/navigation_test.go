package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

func TestNavigator_Format(t *testing.T) {
	n := NewNavigator(newFakeBackend())

	out := n.Format(models.LevelCommune, []models.LocationNode{{ID: 10, Name: "Abomey-Calavi"}, {ID: 11, Name: "Allada"}})

	assert.Equal(t, "🏙️ *Sélectionnez votre COMMUNE :*\n\n"+
		"1. Abomey-Calavi\n"+
		"2. Allada\n"+
		"\n👉 Répondez avec le *numéro* correspondant (ou 0 pour annuler)", out)
}

func TestNavigator_FormatPosteShowsLocation(t *testing.T) {
	n := NewNavigator(newFakeBackend())

	out := n.Format(models.LevelPoste, []models.LocationNode{
		{ID: 1, PosteName: "PV 01", VillageNom: "Cocotomey", CentreNom: "EPP Godomey"},
		{ID: 2, PosteName: "PV 02"},
	})

	assert.Contains(t, out, "1. PV 01\n   📍 Cocotomey - EPP Godomey\n2. PV 02\n")
}

func TestNavigator_Pick(t *testing.T) {
	n := NewNavigator(newFakeBackend())
	nodes := []models.LocationNode{{ID: 1}, {ID: 2}, {ID: 3}}

	node, ok := n.Pick(nodes, " 2 ")
	require.True(t, ok)
	assert.Equal(t, int64(2), node.ID)

	for _, input := range []string{"0", "4", "-1", "+1", "1.0", "deux", "", "99999999999999999999"} {
		_, ok := n.Pick(nodes, input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestNavigator_FetchKeepsBackendOrder(t *testing.T) {
	n := NewNavigator(newFakeBackend())

	nodes, err := n.Fetch(context.Background(), models.LevelDepartment, 0, testUser)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Atlantique", nodes[0].Name)
	assert.Equal(t, "Littoral", nodes[1].Name)
}
