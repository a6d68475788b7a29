package utils

import (
	"fmt"
)

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" bson:"lat" binding:"latitude"`
	Lng float64 `json:"lng" bson:"lng" binding:"longitude"`
}

func (c Coordinate) IsValid() bool {
	return IsValidCoordinates(c.Lat, c.Lng)
}

// ToGeoJSON returns the [lng, lat] pair used by GeoJSON points.
func (c Coordinate) ToGeoJSON() []float64 {
	return []float64{c.Lng, c.Lat}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

func NewCoordinateFromGeoJSON(coordinates []float64) (Coordinate, bool) {
	if len(coordinates) < 2 {
		return Coordinate{}, false
	}
	return Coordinate{Lat: coordinates[1], Lng: coordinates[0]}, true
}

func IsValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
