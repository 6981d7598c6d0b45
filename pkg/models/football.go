package models

// MatchStatus is the lifecycle state of a match as read from its acta
type MatchStatus string

const (
	StatusPending   MatchStatus = "Pending"
	StatusFinished  MatchStatus = "Finished"
	StatusSuspended MatchStatus = "Suspended"
)

// EventKind classifies a match event row
type EventKind string

const (
	EventGoal         EventKind = "Goal"
	EventPenaltyGoal  EventKind = "PenaltyGoal"
	EventOwnGoal      EventKind = "OwnGoal"
	EventYellowCard   EventKind = "YellowCard"
	EventSecondYellow EventKind = "SecondYellow"
	EventRedCard      EventKind = "RedCard"
)

// Competition categories
const (
	CategoryJuvenil  = "Juvenil"
	CategoryCadete   = "Cadete"
	CategoryInfantil = "Infantil"
)

// Competition organizers
const (
	OrganizerFCF  = "FCF"
	OrganizerRFEF = "RFEF"
)

// Competition is one league/tier listed by the federation for a season
type Competition struct {
	ID           int64   `db:"id"`
	Code         string  `db:"code"` // external code (title attribute on the listing)
	Name         string  `db:"name"`
	Slug         string  `db:"slug"`
	Category     *string `db:"category"`
	MaxAge       *int    `db:"max_age"`
	Organizer    string  `db:"organizer"`
	Level        *int    `db:"level"` // rank inside its age/category cohort
	Abbreviation *string `db:"abbreviation"`
}

// Group is a division of a competition for one season
type Group struct {
	ID            int64   `db:"id"`
	CompetitionID int64   `db:"competition_id"`
	Number        int     `db:"number"`
	Season        string  `db:"season"`
	Region        *string `db:"region"`
	Slug          string  `db:"slug"`
}

// Club is keyed by slug; locality, delegation and province stay nil until the club page is read
type Club struct {
	ID         int64   `db:"id"`
	Slug       string  `db:"slug"`
	Name       *string `db:"name"`
	Locality   *string `db:"locality"`
	Delegation *string `db:"delegation"`
	Province   *string `db:"province"`
}

// Team is a club's squad in one group; (club, group, level) is unique
type Team struct {
	ID       int64   `db:"id"`
	ClubID   int64   `db:"club_id"`
	GroupID  int64   `db:"group_id"`
	Level    int     `db:"level"`
	Category *string `db:"category"`
	Slug     *string `db:"slug"`
}

// Venue is keyed by the federation's numeric field code
type Venue struct {
	ID       int64   `db:"id"`
	Code     string  `db:"code"`
	Name     *string `db:"name"`
	Terrain  *string `db:"terrain"`
	Address  *string `db:"address"`
	Locality *string `db:"locality"`
	Province *string `db:"province"`
}

// PersonName is a name split as "Last, First" on the site
type PersonName struct {
	First string
	Last  string
}

// IsZero reports whether both parts are empty
func (p PersonName) IsZero() bool { return p.First == "" && p.Last == "" }

// Referee is keyed by (first, last, delegation); an unknown delegation is stored as ""
type Referee struct {
	Name       PersonName
	Delegation string
}

// Fixture is a calendar entry; (local, visitor, jornada, group) is unique
type Fixture struct {
	GroupID       int64
	LocalTeamID   int64
	VisitorTeamID int64
	Jornada       int
}

// MatchKey identifies the match row an acta belongs to. Jornada is 0 when unknown,
// in which case the earliest fixture of the pairing is used.
type MatchKey struct {
	GroupID       int64
	LocalTeamID   int64
	VisitorTeamID int64
	Jornada       int
}
