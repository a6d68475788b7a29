package models

import (
	"time"

	"bloodconnect/internal/utils"
)

type Urgency string
type EmergencyStatus string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"

	EmergencyStatusActive EmergencyStatus = "active"
	EmergencyStatusClosed EmergencyStatus = "closed"
)

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium:
		return true
	}
	return false
}

// RequiresCall reports whether donors get a voice call on top of the SMS.
func (u Urgency) RequiresCall() bool {
	return u == UrgencyCritical || u == UrgencyHigh
}

type EmergencyRequest struct {
	ID            string           `json:"id"`
	BloodType     BloodType        `json:"blood_type"`
	Hospital      string           `json:"hospital"`
	Urgency       Urgency          `json:"urgency"`
	UnitsRequired int              `json:"units_required"`
	Details       string           `json:"details"`
	Origin        utils.Coordinate `json:"origin"`
	RequestedBy   string           `json:"requested_by,omitempty"`
	Status        EmergencyStatus  `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`
}

func (r *EmergencyRequest) IsActive() bool {
	return r.Status == EmergencyStatusActive
}

// CreateEmergencyParams is the caller input for a dispatch.
type CreateEmergencyParams struct {
	BloodType     BloodType        `json:"bloodType" binding:"required,blood_type"`
	Hospital      string           `json:"hospital" binding:"required,max=200"`
	Urgency       Urgency          `json:"urgency" binding:"required,urgency"`
	UnitsRequired int              `json:"unitsRequired" binding:"required,min=1"`
	Details       string           `json:"details" binding:"max=1000"`
	Origin        utils.Coordinate `json:"origin"`
	RequestedBy   string           `json:"-"`
}
