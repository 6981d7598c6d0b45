package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamLevel(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"DAMM, C.F. A", 1},
		{"DAMM, C.F. B", 2},
		{"FUNDACIÓ CORNELLÀ C", 3},
		{"ESCOLA F. BASE D", 4},
		{"ESCOLA F. BASE B.", 2},
		{"AMPOSTA", 1},
		{"ESPANYOL RCD", 1},
		{"JESUS I MARIA, U.D.", 1},
		{"SABADELL, C.E. e", 1},
		{"", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TeamLevel(tt.name))
		})
	}
}

func TestClubName(t *testing.T) {
	assert.Equal(t, "DAMM, C.F.", ClubName("DAMM, C.F. A"))
	assert.Equal(t, "ESCOLA F. BASE", ClubName("ESCOLA F. BASE  d"))
	assert.Equal(t, "AMPOSTA", ClubName("AMPOSTA"))
	assert.Equal(t, "ESPANYOL RCD", ClubName("ESPANYOL RCD"))
}

func TestClubSlug(t *testing.T) {
	tests := []struct {
		teamSlug string
		want     string
	}{
		{"espanyol-rcd-a", "espanyol-rcd"},
		{"club-u19", "club"},
		{"damm-cf-h", "damm-cf"},
		{"amposta-cf", "amposta-cf"},
		{"sant-andreu-ue-i", "sant-andreu-ue-i"},
		{"club-u", "club-u"},
	}

	for _, tt := range tests {
		t.Run(tt.teamSlug, func(t *testing.T) {
			assert.Equal(t, tt.want, ClubSlug(tt.teamSlug))
		})
	}
}

func TestSlugExceptions(t *testing.T) {
	ex := DefaultSlugExceptions(nil)
	assert.Equal(t, "vila-seca-cf", ex.ClubPageSlug("vilaseca-cf"))
	assert.Equal(t, "les-corts-de-barcelona-club-esportiu", ex.ClubPageSlug("les-corts-de-barcelona-club-esp"))
	assert.Equal(t, "amposta-cf", ex.ClubPageSlug("amposta-cf"))
	assert.Len(t, ex, 18)

	withExtra := DefaultSlugExceptions(map[string]string{"vilaseca-cf": "override", "new-cf": "nou-cf"})
	assert.Equal(t, "override", withExtra.ClubPageSlug("vilaseca-cf"))
	assert.Equal(t, "nou-cf", withExtra.ClubPageSlug("new-cf"))
	assert.Equal(t, "vila-seca-cf", ex.ClubPageSlug("vilaseca-cf"), "built-in table must not be mutated")
}
