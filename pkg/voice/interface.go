package voice

import "context"

type CallProvider interface {
	Name() string
	PlaceCall(ctx context.Context, request *CallRequest) (*CallResponse, error)
}

type CallRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
	// Emergency appends a request to respond as soon as possible.
	Emergency bool `json:"emergency"`
}

type CallResponse struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`
}
