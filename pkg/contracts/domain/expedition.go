package domain

// RawRecord is one expedition attempt as read from the source table.
// Cells are kept as the strings found in the file; the timeline reconciler
// decides which ones are missing and which ones are malformed.
type RawRecord struct {
	Line   int    `json:"line"`
	ExpID  string `json:"expid" validate:"required"`
	PeakID string `json:"peakid" validate:"required"`
	Year   string `json:"year"`
	Season string `json:"season"`

	Success1 string `json:"success1"`
	Success2 string `json:"success2"`
	Success3 string `json:"success3"`
	Success4 string `json:"success4"`
	Claimed  string `json:"claimed"`
	Disputed string `json:"disputed"`

	BCDate   string `json:"bcdate"`
	SmtDate  string `json:"smtdate"`
	TermDate string `json:"termdate"`

	TotMembers string `json:"totmembers"`
	TotHired   string `json:"tothired"`
	SmtMembers string `json:"smtmembers"`
	SmtHired   string `json:"smthired"`
	MDeaths    string `json:"mdeaths"`
	HDeaths    string `json:"hdeaths"`
}

// Successes returns the four success indicator cells in column order.
func (r RawRecord) Successes() [4]string {
	return [4]string{r.Success1, r.Success2, r.Success3, r.Success4}
}

// Season is the climbing season code used by the expedition table.
type Season int

const (
	SeasonUnknown Season = 0
	SeasonSpring  Season = 1
	SeasonSummer  Season = 2
	SeasonAutumn  Season = 3
	SeasonWinter  Season = 4
)

// Seasons lists the valid season codes in calendar order.
var Seasons = []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter}

// String returns the display label for the season
func (s Season) String() string {
	switch s {
	case SeasonSpring:
		return "Spring"
	case SeasonSummer:
		return "Summer"
	case SeasonAutumn:
		return "Autumn"
	case SeasonWinter:
		return "Winter"
	default:
		return ""
	}
}

// IsValid reports whether s is one of the four recorded seasons.
func (s Season) IsValid() bool {
	return s >= SeasonSpring && s <= SeasonWinter
}
