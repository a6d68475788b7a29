package models

import (
	"time"

	"bloodconnect/internal/utils"
)

// Donor is a profile row as exposed by the donor store. Location and phone
// are optional: a donor without a location never appears in geo searches and
// a donor without a phone cannot be notified.
type Donor struct {
	ID           string            `json:"id"`
	FullName     string            `json:"full_name"`
	BloodType    BloodType         `json:"blood_type"`
	IsDonor      bool              `json:"is_donor"`
	Location     *utils.Coordinate `json:"location,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	LastDonation *time.Time        `json:"last_donation,omitempty"`
}

func (d *Donor) HasLocation() bool {
	return d.Location != nil
}

func (d *Donor) IsNotifiable() bool {
	return d.Phone != ""
}

// DonorFilter is the store predicate: is_donor = true [AND blood_type = ?].
// An empty BloodType (or BloodTypeAny) drops the blood type predicate.
type DonorFilter struct {
	BloodType BloodType
}

func (f DonorFilter) MatchesAnyType() bool {
	return f.BloodType == "" || f.BloodType == BloodTypeAny
}
