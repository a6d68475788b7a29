package models

import (
	"bloodconnect/internal/utils"
)

// Location is the GeoJSON point shape stored in document databases.
type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,len=2"`
}

func NewPointLocation(c utils.Coordinate) *Location {
	return &Location{
		Type:        "Point",
		Coordinates: c.ToGeoJSON(),
	}
}

func (l *Location) Coordinate() (utils.Coordinate, bool) {
	if l == nil {
		return utils.Coordinate{}, false
	}
	return utils.NewCoordinateFromGeoJSON(l.Coordinates)
}
