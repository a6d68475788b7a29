package interfaces

import (
	"context"

	"bloodconnect/internal/models"
)

type EmergencyRepository interface {
	// Create assigns ID and CreatedAt and stores the request as active.
	Create(ctx context.Context, request *models.EmergencyRequest) error
	GetByID(ctx context.Context, id string) (*models.EmergencyRequest, error)

	// UpdateStatus moves the request to status and returns the stored record.
	// A request already in that status is returned unchanged.
	UpdateStatus(ctx context.Context, id string, status models.EmergencyStatus) (*models.EmergencyRequest, error)

	// ListActive returns active requests, newest first.
	ListActive(ctx context.Context, limit int) ([]*models.EmergencyRequest, error)
}
