package services

import (
	"fmt"
	"strings"

	"bloodconnect/internal/models"
)

func BuildSMSMessage(request *models.EmergencyRequest) string {
	msg := fmt.Sprintf("EMERGENCY BLOOD REQUEST: %s blood needed at %s. Urgency: %s. %s",
		request.BloodType, request.Hospital, request.Urgency, request.Details)
	return strings.TrimSpace(msg)
}

func BuildCallMessage(request *models.EmergencyRequest) string {
	msg := fmt.Sprintf("This is an emergency blood donation request for %s blood type at %s. The urgency level is %s. %s",
		request.BloodType, request.Hospital, request.Urgency, request.Details)
	return strings.TrimSpace(msg)
}
