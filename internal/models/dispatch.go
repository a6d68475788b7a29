package models

type RecipientOutcome struct {
	DonorID    string `json:"donorId"`
	Channel    string `json:"channel"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DeliveryID string `json:"deliveryId,omitempty"`
}

// DispatchOutcome summarizes one emergency dispatch. RespondingCount stays 0
// until donors have a way to answer a request.
type DispatchOutcome struct {
	RequestID       string             `json:"requestId"`
	MatchedCount    int                `json:"matchedCount"`
	NotifiedCount   int                `json:"notifiedCount"`
	RespondingCount int                `json:"respondingCount"`
	PerRecipient    []RecipientOutcome `json:"perRecipient"`
}
