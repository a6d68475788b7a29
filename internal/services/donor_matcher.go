package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"bloodconnect/internal/models"
	"bloodconnect/internal/repositories/interfaces"
	"bloodconnect/internal/utils"
	"bloodconnect/pkg/logger"
)

// DonorMatcher finds donors of a blood type around a point, nearest first.
// Matching is exact; "any" matches every type.
type DonorMatcher interface {
	Find(ctx context.Context, criteria models.SearchCriteria) ([]models.MatchResult, error)
}

type donorMatcher struct {
	donorRepo interfaces.DonorRepository
	logger    *logger.Logger
}

func NewDonorMatcher(donorRepo interfaces.DonorRepository, logger *logger.Logger) DonorMatcher {
	return &donorMatcher{
		donorRepo: donorRepo,
		logger:    logger,
	}
}

func (m *donorMatcher) Find(ctx context.Context, criteria models.SearchCriteria) ([]models.MatchResult, error) {
	if err := validateCriteria(criteria); err != nil {
		return nil, err
	}

	donors, err := m.donorRepo.FindDonors(ctx, models.DonorFilter{BloodType: criteria.BloodType})
	if err != nil {
		if errors.Is(err, utils.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query donors: %w: %w", utils.ErrStoreUnavailable, err)
	}

	matches := make([]models.MatchResult, 0, len(donors))
	for _, donor := range donors {
		if donor == nil || !donor.HasLocation() {
			continue
		}

		distance := utils.DistanceKM(criteria.Origin, *donor.Location)
		if distance > criteria.RadiusKM {
			continue
		}

		matches = append(matches, models.MatchResult{Donor: donor, DistanceKM: distance})
	}

	slices.SortFunc(matches, func(a, b models.MatchResult) int {
		if c := cmp.Compare(a.DistanceKM, b.DistanceKM); c != 0 {
			return c
		}
		return cmp.Compare(a.Donor.ID, b.Donor.ID)
	})

	if criteria.Limit > 0 && len(matches) > criteria.Limit {
		matches = matches[:criteria.Limit]
	}

	m.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"blood_type": criteria.BloodType,
		"radius_km":  criteria.RadiusKM,
		"candidates": len(donors),
		"matched":    len(matches),
	}).Debug("Donor search completed")

	return matches, nil
}

func validateCriteria(criteria models.SearchCriteria) error {
	if math.IsNaN(criteria.RadiusKM) || math.IsInf(criteria.RadiusKM, 0) || criteria.RadiusKM <= 0 {
		return fmt.Errorf("%w: radius must be a positive number of kilometres", utils.ErrInvalidCriteria)
	}
	if !criteria.Origin.IsValid() {
		return fmt.Errorf("%w: origin %s is out of range", utils.ErrInvalidCriteria, criteria.Origin)
	}
	if !criteria.BloodType.IsValidCriterion() {
		return fmt.Errorf("%w: unknown blood type %q", utils.ErrInvalidCriteria, criteria.BloodType)
	}
	if criteria.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", utils.ErrInvalidCriteria)
	}
	return nil
}
