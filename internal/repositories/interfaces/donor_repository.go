package interfaces

import (
	"context"

	"bloodconnect/internal/models"
)

type DonorRepository interface {
	// FindDonors applies is_donor = true [AND blood_type = ?]. Location
	// filtering happens in the caller.
	FindDonors(ctx context.Context, filter models.DonorFilter) ([]*models.Donor, error)
	GetByID(ctx context.Context, id string) (*models.Donor, error)
}
