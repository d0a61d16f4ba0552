package domain

import "fmt"

type PlaceType string

const (
	PlaceTypeCity    PlaceType = "city"
	PlaceTypeCountry PlaceType = "country"
	PlaceTypeOther   PlaceType = "other"
)

// ParsePlaceType maps an upstream classification tag onto a PlaceType.
func ParsePlaceType(tag string) PlaceType {
	switch tag {
	case "city":
		return PlaceTypeCity
	case "country":
		return PlaceTypeCountry
	default:
		return PlaceTypeOther
	}
}

// LocationRecord is a resolved filming location.
// Description is always populated, even when enrichment failed.
type LocationRecord struct {
	Name        string    `json:"name"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Description string    `json:"description"`
	Image       *string   `json:"image,omitempty"`
	Extract     *string   `json:"wikipedia_extract,omitempty"`
	Type        PlaceType `json:"type,omitempty"`
}

// Clone returns a deep copy.
func (l *LocationRecord) Clone() *LocationRecord {
	if l == nil {
		return nil
	}
	out := *l
	out.Image = cloneString(l.Image)
	out.Extract = cloneString(l.Extract)
	return &out
}

// FallbackDescription is used when no encyclopedia article could be found.
func FallbackDescription(displayName string) string {
	return fmt.Sprintf("Location: %s. This is one of the places related to the movie.", displayName)
}

// EmptyExtractDescription is used when an article exists but carries no extract.
func EmptyExtractDescription(displayName string) string {
	return fmt.Sprintf("Information about %s", displayName)
}
