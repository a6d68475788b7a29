package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bloodconnect/internal/middleware"
	"bloodconnect/internal/models"
	"bloodconnect/internal/services"
	"bloodconnect/internal/utils"
	"bloodconnect/internal/validators"
	"bloodconnect/pkg/logger"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
	maxActiveRequestList = 200
)

type EmergencyHandler struct {
	dispatcher services.EmergencyDispatcher
	logger     *logger.Logger
}

func NewEmergencyHandler(dispatcher services.EmergencyDispatcher, logger *logger.Logger) *EmergencyHandler {
	return &EmergencyHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreateEmergencyRequest stores the request and notifies nearby donors
func (h *EmergencyHandler) CreateEmergencyRequest(c *gin.Context) {
	var params models.CreateEmergencyParams
	if err := c.ShouldBindJSON(&params); err != nil {
		utils.ValidationErrorResponse(c, utils.CodeInvalidRequest, validators.TranslateBindingError(err))
		return
	}

	params.Hospital = validators.SanitizeInput(params.Hospital)
	params.Details = validators.SanitizeInput(params.Details)
	params.RequestedBy = middleware.GetUserID(c)

	idempotencyKey := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(idempotencyKey) > maxIdempotencyKeyLen {
		utils.BadRequestResponse(c, utils.CodeInvalidRequest, "Idempotency-Key is too long")
		return
	}

	outcome, err := h.dispatcher.CreateAndDispatch(c.Request.Context(), &params, idempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidRequest):
			utils.BadRequestResponse(c, utils.CodeInvalidRequest, err.Error())
		case errors.Is(err, utils.ErrInProgress):
			utils.ConflictResponse(c, utils.CodeDispatchInProgress, "A dispatch with this Idempotency-Key is still running")
		default:
			respondWithStoreError(c, h.logger, "Emergency request", err)
		}
		return
	}

	utils.CreatedResponse(c, "Emergency request dispatched", outcome)
}

// GetEmergencyRequest returns one stored request
func (h *EmergencyHandler) GetEmergencyRequest(c *gin.Context) {
	request, err := h.dispatcher.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithStoreError(c, h.logger, "Emergency request", err)
		return
	}

	utils.SuccessResponse(c, "Emergency request retrieved successfully", request)
}

// ListActiveEmergencyRequests returns active requests, newest first
func (h *EmergencyHandler) ListActiveEmergencyRequests(c *gin.Context) {
	limit := utils.DefaultActiveRequestList
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.BadRequestResponse(c, utils.CodeInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxActiveRequestList)
	}

	requests, err := h.dispatcher.ListActive(c.Request.Context(), limit)
	if err != nil {
		respondWithStoreError(c, h.logger, "Emergency requests", err)
		return
	}
	if requests == nil {
		requests = []*models.EmergencyRequest{}
	}

	utils.SuccessResponseWithMeta(c, "Active emergency requests retrieved successfully", requests, &utils.Meta{Count: len(requests)})
}

// CloseEmergencyRequest marks a request closed. Only its creator may close it.
func (h *EmergencyHandler) CloseEmergencyRequest(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	current, err := h.dispatcher.Get(ctx, id)
	if err != nil {
		respondWithStoreError(c, h.logger, "Emergency request", err)
		return
	}

	userID := middleware.GetUserID(c)
	if current.RequestedBy != "" && current.RequestedBy != userID {
		h.logger.LogSecurityEvent("emergency_close_denied", "medium", map[string]interface{}{
			"emergency_id": id,
			"user_id":      userID,
			"ip":           c.ClientIP(),
		})
		utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", utils.MsgForbidden)
		return
	}

	closed, err := h.dispatcher.Close(ctx, id)
	if err != nil {
		respondWithStoreError(c, h.logger, "Emergency request", err)
		return
	}

	h.logger.WithUserID(userID).WithEmergencyID(id).Info("Emergency request closed")
	utils.SuccessResponse(c, "Emergency request closed", closed)
}
