package models

import (
	"bloodconnect/internal/utils"
)

type SearchCriteria struct {
	BloodType BloodType        `json:"bloodType" binding:"required,blood_type_or_any"`
	Origin    utils.Coordinate `json:"origin"`
	RadiusKM  float64          `json:"radiusKm" binding:"required,gt=0"`
	Limit     int              `json:"limit,omitempty" binding:"omitempty,min=1"`
}

type MatchResult struct {
	Donor      *Donor  `json:"donor"`
	DistanceKM float64 `json:"distanceKm"`
}
