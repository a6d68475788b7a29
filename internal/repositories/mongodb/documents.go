package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"bloodconnect/internal/models"
)

type donorDocument struct {
	ID           string           `bson:"_id"`
	FullName     string           `bson:"full_name"`
	BloodType    models.BloodType `bson:"blood_type"`
	IsDonor      bool             `bson:"is_donor"`
	Location     *models.Location `bson:"location,omitempty"`
	Phone        string           `bson:"phone,omitempty"`
	LastDonation *time.Time       `bson:"last_donation,omitempty"`
}

func (d *donorDocument) toModel() *models.Donor {
	donor := &models.Donor{
		ID:           d.ID,
		FullName:     d.FullName,
		BloodType:    d.BloodType,
		IsDonor:      d.IsDonor,
		Phone:        d.Phone,
		LastDonation: d.LastDonation,
	}
	if coord, ok := d.Location.Coordinate(); ok {
		donor.Location = &coord
	}
	return donor
}

type emergencyDocument struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty"`
	BloodType     models.BloodType       `bson:"blood_type"`
	Hospital      string                 `bson:"hospital"`
	Urgency       models.Urgency         `bson:"urgency"`
	UnitsRequired int                    `bson:"units_required"`
	Details       string                 `bson:"details"`
	Origin        models.Location        `bson:"origin"`
	RequestedBy   string                 `bson:"requested_by,omitempty"`
	Status        models.EmergencyStatus `bson:"status"`
	CreatedAt     time.Time              `bson:"created_at"`
	ClosedAt      *time.Time             `bson:"closed_at,omitempty"`
}

func (d *emergencyDocument) toModel() *models.EmergencyRequest {
	origin, _ := d.Origin.Coordinate()
	return &models.EmergencyRequest{
		ID:            d.ID.Hex(),
		BloodType:     d.BloodType,
		Hospital:      d.Hospital,
		Urgency:       d.Urgency,
		UnitsRequired: d.UnitsRequired,
		Details:       d.Details,
		Origin:        origin,
		RequestedBy:   d.RequestedBy,
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
		ClosedAt:      d.ClosedAt,
	}
}

func newEmergencyDocument(request *models.EmergencyRequest) *emergencyDocument {
	return &emergencyDocument{
		BloodType:     request.BloodType,
		Hospital:      request.Hospital,
		Urgency:       request.Urgency,
		UnitsRequired: request.UnitsRequired,
		Details:       request.Details,
		Origin:        *models.NewPointLocation(request.Origin),
		RequestedBy:   request.RequestedBy,
		Status:        request.Status,
		CreatedAt:     request.CreatedAt,
		ClosedAt:      request.ClosedAt,
	}
}
