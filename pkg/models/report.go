package models

// Side tells which column of the acta a record belongs to
type Side int

const (
	SideUnknown Side = iota
	SideHome
	SideAway
)

// String implements fmt.Stringer for logging
func (s Side) String() string {
	switch s {
	case SideHome:
		return "home"
	case SideAway:
		return "away"
	}
	return "unknown"
}

// LineupPlayer is one row of a Titulars/Suplents table.
// Players are identified by name only, so two people with the same name share a record.
type LineupPlayer struct {
	Name        PersonName
	ShirtNumber *int
	Starter     bool
}

// StaffMember is one row of an "Equip Tècnic" table
type StaffMember struct {
	Name PersonName
	Role string
}

// Goal is one row of the Gols table
type Goal struct {
	Scorer    PersonName
	Type      string // Normal, Penal, Propia
	Kind      EventKind
	Minute    *int
	CrestFile string // final path segment of the scorer's crest image
	Side      Side
}

// Card is one row of a Targetes table. Kind is nil when the label is not a known card.
type Card struct {
	Player      PersonName
	Label       string
	Kind        *EventKind
	Minute      *int
	ShirtNumber *int
}

// TeamSheet groups everything the acta lists for one side
type TeamSheet struct {
	Starters    []LineupPlayer
	Substitutes []LineupPlayer
	Staff       []StaffMember
	Cards       []Card
}

// Report is the typed content of an acta page
type Report struct {
	Date         *string // ISO date (2006-01-02)
	Time         *string // HH:MM
	Status       *MatchStatus
	GoalsLocal   *int
	GoalsVisitor *int
	VenueCode    *string
	Referee      *Referee
	HomeCrest    string
	AwayCrest    string
	Home         TeamSheet
	Away         TeamSheet
	Goals        []Goal
}

// Sheet returns the team sheet for a side (nil for SideUnknown)
func (r *Report) Sheet(side Side) *TeamSheet {
	switch side {
	case SideHome:
		return &r.Home
	case SideAway:
		return &r.Away
	}
	return nil
}
