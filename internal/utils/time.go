package utils

import (
	"time"
)

// IsDonorEligible reports whether a whole-blood donation is allowed at now.
// A donor who never donated is eligible. Only whole elapsed days count.
func IsDonorEligible(lastDonation *time.Time, now time.Time) bool {
	if lastDonation == nil {
		return true
	}
	days := int(now.Sub(*lastDonation).Hours() / 24)
	return days >= DonationIntervalDays
}

// NextEligibleDate returns nil when the donor can already donate.
func NextEligibleDate(lastDonation *time.Time, now time.Time) *time.Time {
	if IsDonorEligible(lastDonation, now) {
		return nil
	}
	next := lastDonation.Add(DonationIntervalDays * 24 * time.Hour)
	return &next
}
