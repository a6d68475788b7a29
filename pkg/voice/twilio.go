package voice

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type callAPI interface {
	CreateCall(params *api.CreateCallParams) (*api.ApiV2010Call, error)
}

type TwilioProvider struct {
	api        callAPI
	fromNumber string
}

func NewTwilioProvider(accountSID, authToken, fromNumber string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioProvider{
		api:        client.Api,
		fromNumber: fromNumber,
	}
}

func (t *TwilioProvider) Name() string {
	return "twilio"
}

func (t *TwilioProvider) PlaceCall(ctx context.Context, request *CallRequest) (*CallResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from := request.From
	if from == "" {
		from = t.fromNumber
	}

	script, err := BuildTwiML(request.Message, request.Emergency)
	if err != nil {
		return nil, err
	}

	params := &api.CreateCallParams{}
	params.SetTo(request.To)
	params.SetFrom(from)
	params.SetTwiml(script)

	resp, err := t.api.CreateCall(params)
	if err != nil {
		return nil, fmt.Errorf("twilio: failed to create call: %w", err)
	}

	out := &CallResponse{Status: "queued"}
	if resp.Sid != nil {
		out.CallID = *resp.Sid
	}
	if resp.Status != nil {
		out.Status = string(*resp.Status)
	}
	return out, nil
}
