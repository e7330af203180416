package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFor(t *testing.T) {
	tests := []struct {
		name       string
		t          ElectionType
		posteLevel bool
		levels     []Level
		parties    []string
	}{
		{
			name:    "legislatives end at arrondissement",
			t:       ElectionLegislatives,
			levels:  []Level{LevelDepartment, LevelCommune, LevelArrondissement},
			parties: []string{"UPR", "BR", "FCBE", "MOELE BENIN", "LD"},
		},
		{
			name:    "communales end at arrondissement",
			t:       ElectionCommunales,
			levels:  []Level{LevelDepartment, LevelCommune, LevelArrondissement},
			parties: []string{"UPR", "BR", "FCBE"},
		},
		{
			name:    "locales end at village",
			t:       ElectionLocales,
			levels:  []Level{LevelDepartment, LevelCommune, LevelArrondissement, LevelVillage},
			parties: []string{"UPR", "BR", "FCBE"},
		},
		{
			name:       "locales at poste level",
			t:          ElectionLocales,
			posteLevel: true,
			levels:     []Level{LevelDepartment, LevelCommune, LevelArrondissement, LevelCentre, LevelPoste},
			parties:    []string{"UPR", "BR", "FCBE"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanFor(tt.t, tt.posteLevel)
			require.NoError(t, err)
			assert.Equal(t, tt.levels, plan.Levels)
			assert.Equal(t, tt.parties, plan.Parties)
		})
	}
}

func TestPlanFor_PlansDoNotShareSlices(t *testing.T) {
	a, _ := PlanFor(ElectionCommunales, false)
	a.Levels[0] = LevelPoste
	a.Parties[0] = "XXX"

	b, _ := PlanFor(ElectionCommunales, false)
	assert.Equal(t, LevelDepartment, b.Levels[0])
	assert.Equal(t, "UPR", b.Parties[0])
}

func TestPlanFor_UnknownType(t *testing.T) {
	_, err := PlanFor("presidentielles", false)
	assert.Error(t, err)
}

func TestElectionTypeFromChoice(t *testing.T) {
	for choice, want := range map[string]ElectionType{"1": ElectionLegislatives, "2": ElectionCommunales, "3": ElectionLocales} {
		got, ok := ElectionTypeFromChoice(choice)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := ElectionTypeFromChoice("4")
	assert.False(t, ok)
}

func TestPartyKey(t *testing.T) {
	assert.Equal(t, "moele_benin", PartyKey("MOELE BENIN"))
	assert.Equal(t, "upr", PartyKey("UPR"))
}
