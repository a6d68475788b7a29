package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"bloodconnect/internal/models"
	"bloodconnect/internal/services"
	"bloodconnect/internal/utils"
	"bloodconnect/internal/validators"
	"bloodconnect/pkg/logger"
)

type DonorHandler struct {
	matcher  services.DonorMatcher
	maxLimit int
	logger   *logger.Logger
	now      func() time.Time
}

// NewDonorHandler caps every search at maxLimit results; 0 disables the cap.
func NewDonorHandler(matcher services.DonorMatcher, maxLimit int, logger *logger.Logger) *DonorHandler {
	return &DonorHandler{
		matcher:  matcher,
		maxLimit: maxLimit,
		logger:   logger,
		now:      time.Now,
	}
}

// DonorMatchResponse is one search hit. The phone number itself is never
// exposed.
type DonorMatchResponse struct {
	DonorID        string           `json:"donorId"`
	DistanceKM     float64          `json:"distanceKm"`
	Name           string           `json:"name"`
	BloodType      models.BloodType `json:"bloodType"`
	Distance       string           `json:"distance"`
	HasPhone       bool             `json:"hasPhone"`
	Eligible       bool             `json:"eligible"`
	NextEligibleAt *time.Time       `json:"nextEligibleAt,omitempty"`
}

type SearchDonorsResponse struct {
	Matches []DonorMatchResponse `json:"matches"`
}

// SearchDonors returns donors of a blood type within a radius, nearest first
func (h *DonorHandler) SearchDonors(c *gin.Context) {
	var criteria models.SearchCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		utils.ValidationErrorResponse(c, utils.CodeInvalidCriteria, validators.TranslateBindingError(err))
		return
	}

	if h.maxLimit > 0 && (criteria.Limit == 0 || criteria.Limit > h.maxLimit) {
		criteria.Limit = h.maxLimit
	}

	matches, err := h.matcher.Find(c.Request.Context(), criteria)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidCriteria):
			utils.BadRequestResponse(c, utils.CodeInvalidCriteria, err.Error())
		case errors.Is(err, utils.ErrStoreUnavailable):
			h.logger.WithContext(c.Request.Context()).WithError(err).Error("Donor search failed")
			utils.ServiceUnavailableResponse(c)
		default:
			h.logger.WithContext(c.Request.Context()).WithError(err).Error("Donor search failed")
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	now := h.now()
	response := SearchDonorsResponse{Matches: make([]DonorMatchResponse, 0, len(matches))}
	for _, match := range matches {
		response.Matches = append(response.Matches, toDonorMatchResponse(match, now))
	}

	utils.SuccessResponseWithMeta(c, "Donors retrieved successfully", response, &utils.Meta{Count: len(response.Matches)})
}

func toDonorMatchResponse(match models.MatchResult, now time.Time) DonorMatchResponse {
	donor := match.Donor
	return DonorMatchResponse{
		DonorID:        donor.ID,
		DistanceKM:     match.DistanceKM,
		Name:           donor.FullName,
		BloodType:      donor.BloodType,
		Distance:       utils.FormatDistance(match.DistanceKM),
		HasPhone:       donor.IsNotifiable(),
		Eligible:       utils.IsDonorEligible(donor.LastDonation, now),
		NextEligibleAt: utils.NextEligibleDate(donor.LastDonation, now),
	}
}

// respondWithStoreError maps service errors shared by several handlers.
func respondWithStoreError(c *gin.Context, log *logger.Logger, resource string, err error) {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, utils.ErrStoreUnavailable):
		log.WithContext(c.Request.Context()).WithError(err).Error("Store unavailable")
		utils.ServiceUnavailableResponse(c)
	default:
		log.WithContext(c.Request.Context()).WithError(err).Error("Unexpected store error")
		utils.InternalServerErrorResponse(c)
	}
}
