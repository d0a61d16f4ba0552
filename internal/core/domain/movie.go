package domain

import "slices"

// MovieRecord is the merged result of one movie search.
type MovieRecord struct {
	Title    string   `json:"title"`
	Year     int      `json:"year"`
	Director *string  `json:"director,omitempty"`
	Cast     []string `json:"cast"`
	Genre    *string  `json:"genre,omitempty"`
	Rating   *string  `json:"rating,omitempty"`
	Plot     *string  `json:"plot,omitempty"`
	Poster   *string  `json:"poster,omitempty"`

	// Locations holds candidate place names, de-duplicated, never empty.
	Locations []string `json:"locations"`
}

// Clone returns a deep copy so cached records are never shared with callers.
func (m *MovieRecord) Clone() *MovieRecord {
	if m == nil {
		return nil
	}
	out := *m
	out.Cast = slices.Clone(m.Cast)
	out.Locations = slices.Clone(m.Locations)
	out.Director = cloneString(m.Director)
	out.Genre = cloneString(m.Genre)
	out.Rating = cloneString(m.Rating)
	out.Plot = cloneString(m.Plot)
	out.Poster = cloneString(m.Poster)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
