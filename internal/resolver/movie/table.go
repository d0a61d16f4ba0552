package movie

import "strings"

// Entry maps a lower-case title fragment to hand-picked filming locations.
type Entry struct {
	Pattern   string
	Locations []string
}

// Table is an ordered list of entries; the first matching entry wins.
type Table []Entry

// Match returns the locations of the first entry whose pattern is a
// case-insensitive substring of title.
func (t Table) Match(title string) ([]string, bool) {
	lower := strings.ToLower(title)
	for _, e := range t {
		if e.Pattern == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(e.Pattern)) {
			return e.Locations, true
		}
	}
	return nil, false
}

// DefaultTable lists well-known productions whose filming locations are
// not exposed by the movie database.
var DefaultTable = Table{
	{"inception", []string{"Paris", "Tokyo", "Los Angeles", "Tangier", "London"}},
	{"the dark knight", []string{"Chicago", "Hong Kong", "London"}},
	{"forrest gump", []string{"Savannah", "Los Angeles", "Washington D.C.", "Vietnam"}},
	{"the lord of the rings", []string{"New Zealand", "Wellington", "Matamata"}},
	{"harry potter", []string{"London", "Scotland", "Oxford", "Alnwick Castle"}},
	{"casablanca", []string{"Casablanca", "Hollywood"}},
	{"star wars", []string{"Tunisia", "Norway", "Italy", "Guatemala", "Death Valley"}},
	{"avatar", []string{"New Zealand", "Hawaii"}},
	{"mission impossible", []string{"Dubai", "Prague", "London", "Paris"}},
	{"jurassic park", []string{"Hawaii", "Dominican Republic"}},
	{"titanic", []string{"Halifax", "Atlantic Ocean", "Belfast"}},
	{"the godfather", []string{"New York", "Sicily", "Los Angeles"}},
	{"pulp fiction", []string{"Los Angeles", "Hollywood"}},
	{"schindler's list", []string{"Krakow", "Poland", "Israel"}},
	{"gladiator", []string{"Rome", "Morocco", "Malta", "England"}},
	{"the matrix", []string{"Sydney", "Australia"}},
	{"interstellar", []string{"Iceland", "Canada", "Los Angeles"}},
}
