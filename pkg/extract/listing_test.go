package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
)

func TestCohortCounter(t *testing.T) {
	c := NewCohortCounter()
	assert.Equal(t, 1, c.Next("16"))
	assert.Equal(t, 2, c.Next("16"))
	assert.Equal(t, 1, c.Next("juvenil"))
	assert.Equal(t, 3, c.Next("16"))

	juvenil := models.CategoryJuvenil
	age := 19
	l := c.Level(&juvenil, &age)
	require.NotNil(t, l)
	assert.Equal(t, 2, *l, "juvenil cohort ignores the age")
	assert.Nil(t, c.Level(nil, nil))
}

func TestParseCompetitions(t *testing.T) {
	html := `<div>
<p class="competicion" title="1001">Divisió d'Honor Juvenil</p>
<p class="competicion" title="1002">Lliga Nacional Juvenil</p>
<p class="competicion" title="1003">Preferent Juvenil</p>
<p class="competicion" title="2001">Primera Divisió Cadet S16</p>
<p class="competicion" title="2002">Segona Divisió Cadet S16</p>
<p class="competicion" title="3001">Primera Divisió Infantil S14</p>
<p class="competicion" title="9999">Primera Catalana</p>
<p class="competicion">Tercera Divisió Cadet S16</p>
</div>`
	comps := ParseCompetitions(mustDoc(t, html), testLogger())
	require.Len(t, comps, 6)

	byCode := map[string]models.Competition{}
	for _, c := range comps {
		byCode[c.Code] = c
	}
	assert.NotContains(t, byCode, "9999")

	honor := byCode["1001"]
	assert.Equal(t, models.OrganizerRFEF, honor.Organizer)
	require.NotNil(t, honor.Category)
	assert.Equal(t, models.CategoryJuvenil, *honor.Category)
	require.NotNil(t, honor.MaxAge)
	assert.Equal(t, 19, *honor.MaxAge)
	require.NotNil(t, honor.Level)
	assert.Equal(t, 1, *honor.Level)
	assert.Equal(t, "divisio-dhonor-juvenil", honor.Slug)

	assert.Equal(t, models.OrganizerRFEF, byCode["1002"].Organizer)
	assert.Equal(t, models.OrganizerFCF, byCode["1003"].Organizer)
	assert.Equal(t, 3, *byCode["1003"].Level)

	assert.Equal(t, 1, *byCode["2001"].Level)
	assert.Equal(t, 2, *byCode["2002"].Level)
	assert.Equal(t, 16, *byCode["2002"].MaxAge)
	assert.Equal(t, models.CategoryCadete, *byCode["2002"].Category)
	assert.Equal(t, 1, *byCode["3001"].Level)
}

func TestParseGroups(t *testing.T) {
	html := `<div>
<a class="grupo" href="https://www.fcf.cat/classificacio/2526/futbol-11/primera-divisio-cadet-s16/grup-1"><p>Grup 1</p></a>
<a class="grupo" href=""><p>Grup 2</p></a>
<a class="grupo" href="/x/grup-3"><p>Sense número</p></a>
</div>`
	groups := ParseGroups(mustDoc(t, html), testLogger())
	assert.Equal(t, []GroupEntry{
		{Number: 1, Slug: "grup-1"},
		{Number: 2, Slug: "grup-2"},
	}, groups)
}

func TestParseClassification(t *testing.T) {
	html := `<table class="fcftable-e"><tbody>
<tr><td class="tl resumida"><a href="https://www.fcf.cat/calendari-equip/2526/futbol-11/x/grup-1/espanyol-rcd-a">R.C.D. ESPANYOL A</a></td></tr>
<tr><td class="tl resumida"><a href="https://www.fcf.cat/calendari-equip/2526/futbol-11/x/grup-1/damm-cf-b">C.F. DAMM B</a></td></tr>
<tr><td class="tl resumida"><a href="/equip/girona-fc">GIRONA F.C. JUVENIL</a></td></tr>
<tr><td class="tl">sense enllaç</td></tr>
</tbody></table>`
	teams := ParseClassification(mustDoc(t, html), testLogger())
	require.Len(t, teams, 3)

	assert.Equal(t, "espanyol-rcd-a", teams[0].Slug)
	assert.Equal(t, "espanyol-rcd", teams[0].ClubSlug)
	assert.Equal(t, "R.C.D. ESPANYOL", teams[0].ClubName)
	assert.Equal(t, 1, teams[0].Level)
	assert.Nil(t, teams[0].Category)

	assert.Equal(t, "damm-cf", teams[1].ClubSlug)
	assert.Equal(t, 2, teams[1].Level)

	assert.Equal(t, "girona-fc", teams[2].ClubSlug)
	require.NotNil(t, teams[2].Category)
	assert.Equal(t, models.CategoryJuvenil, *teams[2].Category)
}

func TestParseCalendar(t *testing.T) {
	acta := "https://www.fcf.cat/acta/2526/futbol-11/primera-divisio-cadet-s16/grup-1/1cs16/espanyol-rcd-a/1cs16/damm-cf-b"
	html := `<table class="calendaritable"><thead><tr><th>Jornada 1</th><th>21-09-2025</th></tr></thead><tbody>
<tr><td><a href="/equip/espanyol-rcd-a">A</a></td><td></td><td></td><td><a href="` + acta + `">3-1</a></td><td></td><td></td><td><a href="/equip/damm-cf-b">B</a></td></tr>
<tr><td><a href="/equip/girona-fc">G</a></td><td></td><td></td><td></td><td></td><td></td><td></td></tr>
</tbody></table>
<table class="calendaritable"><thead><tr><th>Jornada 2</th></tr></thead><tbody>
<tr><td><a href="/equip/damm-cf-b">B</a></td><td></td><td></td><td></td><td></td><td><a href="/equip/girona-fc">G</a></td></tr>
</tbody></table>`
	cal := ParseCalendar(mustDoc(t, html), testLogger())

	assert.Equal(t, "primera-divisio-cadet-s16", cal.CompetitionSlug)
	assert.Equal(t, "1cs16", cal.Abbreviation)
	assert.Equal(t, []FixtureEntry{
		{Jornada: 1, LocalSlug: "espanyol-rcd-a", VisitorSlug: "damm-cf-b"},
	}, cal.Fixtures, "row without visitor and six-cell row are skipped")
}

func TestParseClubAndVenue(t *testing.T) {
	club := mustDoc(t, `<table>
<tr><td><span>Delegació:</span> BAIX LLOBREGAT</td></tr>
<tr><td><span>Localitat:</span>  Cornellà   de Llobregat</td></tr>
<tr><td><span>Provincia:</span></td></tr>
</table>`)
	cd := ParseClub(club)
	require.NotNil(t, cd.Delegation)
	assert.Equal(t, "Baix Llobregat", *cd.Delegation)
	require.NotNil(t, cd.Locality)
	assert.Equal(t, "Cornellà de Llobregat", *cd.Locality)
	assert.Nil(t, cd.Province)

	venue := mustDoc(t, `<div class="mt-20"><p class="bigtitle"> Camp Municipal  de Futbol </p></div>
<table>
<tr><td><span>Superfície de joc</span></td><td>Gespa artificial</td></tr>
<tr><td><span>Direcció</span></td><td>C/ Major, 1</td></tr>
<tr><td><span>Localitat</span></td><td>Sant Joan Despí</td></tr>
</table>`)
	vd := ParseVenue(venue)
	require.NotNil(t, vd.Name)
	assert.Equal(t, "Camp Municipal de Futbol", *vd.Name)
	assert.Equal(t, "Gespa artificial", *vd.Terrain)
	assert.Equal(t, "C/ Major, 1", *vd.Address)
	assert.Equal(t, "Sant Joan Despí", *vd.Locality)
	assert.Nil(t, vd.Province)
}
