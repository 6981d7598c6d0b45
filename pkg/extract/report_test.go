package extract

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
)

// testLogger returns a logger that discards output
func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const actaHeader = `
<div class="acta-escut"><img src="https://files.fcf.cat/escudos/clubes/escudos/00100.png"></div>
<div class="acta-marcador"><span>3-1</span></div>
<div class="acta-escut"><img src="https://files.fcf.cat/escudos/clubes/escudos/00200.png"></div>
<div class="acta-estat"><span>Acta Tancada</span></div>
<div class="print-acta-data">Data: 21-09-2025, 11:30h</div>
`

func playersTable(rows ...string) string {
	return `<table class="acta-table"><thead><tr><th>Titulars</th></tr></thead><tbody>` +
		strings.Join(rows, "") + `</tbody></table>`
}

func playerRow(number, name string) string {
	return `<tr><td><span>` + number + `</span></td><td><a href="/jugador/x">` + name + `</a></td></tr>`
}

const fullActa = `<html><body>` + actaHeader + `
<table class="acta-table"><thead><tr><th>Titulars</th></tr></thead><tbody>
  <tr><td><span>1</span></td><td><a href="#">GARCIA LOPEZ, JOAN</a></td></tr>
  <tr><td><span>&nbsp;9</span></td><td><a href="#">PUIG, MARC</a></td></tr>
  <tr><td><span></span></td><td></td></tr>
</tbody></table>
<table class="acta-table"><thead><tr><th>Titulars</th></tr></thead><tbody>
  <tr><td><span>7</span></td><td><a href="#">FERRER, PAU</a></td></tr>
</tbody></table>
<table class="acta-table"><thead><tr><th>Suplents</th></tr></thead><tbody>
  <tr><td><span>12</span></td><td><a href="#">ROCA, ARNAU</a></td></tr>
</tbody></table>
<table class="acta-table"><thead><tr><th>Suplents</th></tr></thead><tbody>
  <tr><td><span>X</span></td><td><a href="#">SOLER, BIEL</a></td></tr>
</tbody></table>
<table class="acta-table"><thead><tr><th>Equip Tècnic</th></tr></thead><tbody>
  <tr><td> MARTI   VIDAL, JORDI </td><td><span class="ENTRENADOR"></span></td></tr>
</tbody></table>
<table class="acta-table"><thead><tr><th>Equip Tècnic</th></tr></thead><tbody>
  <tr><td>CASAS, ORIOL</td><td><span class="delegat"></span></td></tr>
</tbody></table>
<table class="acta-table"><thead><tr><th>Gols</th></tr></thead><tbody>
  <tr><td><img src="/escudos/00100.png"></td><td><div class="gol"><div class="gol-penal"><img src="/img/pilota.png"></div></div></td><td><a href="#">PUIG, MARC</a></td><td>12'</td></tr>
  <tr><td><img src="/escudos/00200.png"></td><td><div class="gol"><div class="gol-normal"></div></div></td><td><a href="#">FERRER, PAU</a></td><td>40'</td></tr>
  <tr><td><img src="/escudos/00999.png"></td><td><div class="gol"><div class="gol-propia"></div></div></td><td><a href="#">SOLER, BIEL</a></td><td>77'</td></tr>
</tbody></table>
<table class="acta-table"><thead><tr><th>Targetes</th></tr></thead><tbody>
  <tr><td><span>9</span></td><td><a href="#">PUIG, MARC</a></td><td><div class="acta-stat-box"><div class="groga"></div></div><div class="acta-minut-targeta">33'</div></td></tr>
  <tr><td><span>9</span></td><td><a href="#">PUIG, MARC</a></td><td><div class="acta-stat-box"><div class="groga-2"></div></div><div class="acta-minut-targeta">60'</div></td></tr>
</tbody></table>
<table class="acta-table"><thead><tr><th>Targetes</th></tr></thead><tbody>
  <tr><td><span></span></td><td><a href="#">FERRER, PAU</a></td><td><div class="acta-stat-box"><div class="expulsio"></div></div></td></tr>
</tbody></table>
<table class="acta-table"><thead><tr><th>Estadi</th></tr></thead><tbody>
  <tr><td><a href="/mapa">Mapa</a> <a href="https://www.fcf.cat/camp/1234">Camp Municipal</a></td></tr>
</tbody></table>
<table class="acta-table"><thead><tr><th>Àrbitres</th></tr></thead><tbody>
  <tr><td>Àrbitre</td><td>SERRA  PONS, ANNA <span>(Barcelona)</span></td></tr>
  <tr><td>Assistent</td><td>ALTRE, NOM <span>(Girona)</span></td></tr>
</tbody></table>
</body></html>`

func TestParseReport_FullActa(t *testing.T) {
	r := ParseReport(mustDoc(t, fullActa), testLogger())

	require.NotNil(t, r.Date)
	assert.Equal(t, "2025-09-21", *r.Date)
	require.NotNil(t, r.Time)
	assert.Equal(t, "11:30", *r.Time)
	require.NotNil(t, r.Status)
	assert.Equal(t, models.StatusFinished, *r.Status)
	require.NotNil(t, r.GoalsLocal)
	require.NotNil(t, r.GoalsVisitor)
	assert.Equal(t, 3, *r.GoalsLocal)
	assert.Equal(t, 1, *r.GoalsVisitor)
	require.NotNil(t, r.VenueCode)
	assert.Equal(t, "1234", *r.VenueCode)
	assert.Equal(t, "00100.png", r.HomeCrest)
	assert.Equal(t, "00200.png", r.AwayCrest)

	require.NotNil(t, r.Referee)
	assert.Equal(t, models.PersonName{First: "ANNA", Last: "SERRA PONS"}, r.Referee.Name)
	assert.Equal(t, "Barcelona", r.Referee.Delegation)

	t.Run("lineups", func(t *testing.T) {
		require.Len(t, r.Home.Starters, 2, "row without a name link is skipped")
		assert.Equal(t, models.PersonName{First: "JOAN", Last: "GARCIA LOPEZ"}, r.Home.Starters[0].Name)
		require.NotNil(t, r.Home.Starters[1].ShirtNumber)
		assert.Equal(t, 9, *r.Home.Starters[1].ShirtNumber)
		assert.True(t, r.Home.Starters[0].Starter)

		require.Len(t, r.Away.Starters, 1)
		require.Len(t, r.Away.Substitutes, 1)
		assert.False(t, r.Away.Substitutes[0].Starter)
		assert.Nil(t, r.Away.Substitutes[0].ShirtNumber, "non-numeric shirt number")
	})

	t.Run("staff", func(t *testing.T) {
		require.Len(t, r.Home.Staff, 1)
		assert.Equal(t, models.PersonName{First: "JORDI", Last: "MARTI VIDAL"}, r.Home.Staff[0].Name)
		assert.Equal(t, "Entrenador", r.Home.Staff[0].Role)
		require.Len(t, r.Away.Staff, 1)
		assert.Equal(t, "Delegat", r.Away.Staff[0].Role)
	})

	t.Run("goals", func(t *testing.T) {
		require.Len(t, r.Goals, 3)

		assert.Equal(t, GoalPenalty, r.Goals[0].Type)
		assert.Equal(t, models.EventPenaltyGoal, r.Goals[0].Kind)
		assert.Equal(t, models.SideHome, r.Goals[0].Side)
		require.NotNil(t, r.Goals[0].Minute)
		assert.Equal(t, 12, *r.Goals[0].Minute)

		assert.Equal(t, models.EventGoal, r.Goals[1].Kind)
		assert.Equal(t, models.SideAway, r.Goals[1].Side)

		assert.Equal(t, models.EventOwnGoal, r.Goals[2].Kind)
		assert.Equal(t, models.SideUnknown, r.Goals[2].Side, "crest matches neither side")
	})

	t.Run("cards", func(t *testing.T) {
		require.Len(t, r.Home.Cards, 2)
		assert.Equal(t, CardYellow, r.Home.Cards[0].Label)
		require.NotNil(t, r.Home.Cards[0].Kind)
		assert.Equal(t, models.EventYellowCard, *r.Home.Cards[0].Kind)
		require.NotNil(t, r.Home.Cards[0].Minute)
		assert.Equal(t, 33, *r.Home.Cards[0].Minute)
		assert.Equal(t, CardSecondYellow, r.Home.Cards[1].Label)

		require.Len(t, r.Away.Cards, 1)
		assert.Equal(t, "expulsio", r.Away.Cards[0].Label)
		assert.Nil(t, r.Away.Cards[0].Kind)
		assert.Nil(t, r.Away.Cards[0].ShirtNumber)
		assert.Nil(t, r.Away.Cards[0].Minute)
	})
}

func TestParseReport_SingleTableGoesHome(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	html := `<html><body>` + playersTable(playerRow("1", "PUIG, MARC")) + `</body></html>`
	r := ParseReport(mustDoc(t, html), logrus.NewEntry(logger))

	require.Len(t, r.Home.Starters, 1)
	assert.Empty(t, r.Away.Starters)
	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "Ambiguous single table, assigned to home")
}

func TestParseReport_EmptyPage(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	r := ParseReport(mustDoc(t, `<html><body><p>Acta no disponible</p></body></html>`), logrus.NewEntry(logger))

	assert.Nil(t, r.Date)
	assert.Nil(t, r.Time)
	assert.Nil(t, r.Status)
	assert.Nil(t, r.GoalsLocal)
	assert.Nil(t, r.VenueCode)
	assert.Nil(t, r.Referee)
	assert.Empty(t, r.Home.Starters)
	assert.Empty(t, r.Goals)
	assert.Contains(t, buf.String(), "level=info")
	assert.NotContains(t, buf.String(), "level=warning")
}

func TestParseReport_ExtraTables(t *testing.T) {
	html := `<html><body>` +
		playersTable(playerRow("1", "A, UN")) +
		playersTable(playerRow("2", "B, DOS")) +
		playersTable(playerRow("3", "C, TRES")) +
		`</body></html>`
	r := ParseReport(mustDoc(t, html), testLogger())

	require.Len(t, r.Home.Starters, 1)
	require.Len(t, r.Away.Starters, 1)
	assert.Equal(t, "DOS", r.Away.Starters[0].Name.First)
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		text         string
		local, visit *int
	}{
		{"3-1", intPtr(3), intPtr(1)},
		{" 0 - 0 ", intPtr(0), intPtr(0)},
		{"—", nil, nil},
		{"", nil, nil},
		{"3-", nil, nil},
		{"1-2-3", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			l, v := parseScore(tt.text)
			assert.Equal(t, tt.local, l)
			assert.Equal(t, tt.visit, v)
		})
	}
}

func TestParseKickoff_Malformed(t *testing.T) {
	doc := mustDoc(t, `<div class="print-acta-data">Data: 31-02-2025, 25:99h</div>`)
	date, clock := parseKickoff(doc.Find("div.print-acta-data"), testLogger())
	assert.Nil(t, date)
	assert.Nil(t, clock)
}

func TestParseReferee_WithoutComma(t *testing.T) {
	doc := mustDoc(t, `<table class="acta-table"><thead><tr><th>Àrbitres</th></tr></thead><tbody>
<tr><td>Àrbitre</td><td>PENDENT <span>(Lleida)</span></td></tr></tbody></table>`)
	assert.Nil(t, parseReferee(findTables(doc.Selection, CaptionReferees)))
}

func TestAttributeSide(t *testing.T) {
	assert.Equal(t, models.SideHome, attributeSide("a.png", "a.png", "b.png"))
	assert.Equal(t, models.SideAway, attributeSide("b.png", "a.png", "b.png"))
	assert.Equal(t, models.SideUnknown, attributeSide("c.png", "a.png", "b.png"))
	assert.Equal(t, models.SideUnknown, attributeSide("a.png", "a.png", "a.png"), "identical crests")
	assert.Equal(t, models.SideUnknown, attributeSide("", "a.png", "b.png"))
}

func intPtr(i int) *int { return &i }
