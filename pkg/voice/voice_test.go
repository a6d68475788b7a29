package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCallAPI struct {
	params *api.CreateCallParams
	err    error
}

func (f *fakeCallAPI) CreateCall(params *api.CreateCallParams) (*api.ApiV2010Call, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "CA42"
	return &api.ApiV2010Call{Sid: &sid}, nil
}

func TestBuildTwiML(t *testing.T) {
	got, err := BuildTwiML("O+ needed", false)
	require.NoError(t, err)
	assert.Equal(t,
		`<?xml version="1.0" encoding="UTF-8"?><Response><Say>O+ needed</Say><Pause length="1"/><Say>Thank you for your support.</Say></Response>`,
		got)
}

func TestBuildTwiMLEmergency(t *testing.T) {
	got, err := BuildTwiML("AB- needed", true)
	require.NoError(t, err)
	assert.Contains(t, got, `<Say>AB- needed</Say><Pause length="1"/><Say>This is an emergency blood donation request. Please respond as soon as possible.</Say>`)
	assert.Contains(t, got, `<Say>Thank you for your support.</Say></Response>`)
}

func TestBuildTwiMLEscapesText(t *testing.T) {
	got, err := BuildTwiML(`St. Mary <ER> & Trauma`, false)
	require.NoError(t, err)
	assert.NotContains(t, got, "<ER>")
	assert.Contains(t, got, "&lt;ER&gt; &amp;")
}

func TestTwilioProviderPlaceCall(t *testing.T) {
	fake := &fakeCallAPI{}
	provider := &TwilioProvider{api: fake, fromNumber: "+15550000000"}

	resp, err := provider.PlaceCall(context.Background(), &CallRequest{To: "+15553334444", Message: "hi", Emergency: true})
	require.NoError(t, err)

	assert.Equal(t, "CA42", resp.CallID)
	assert.Equal(t, "+15553334444", *fake.params.To)
	assert.Equal(t, "+15550000000", *fake.params.From)
	want, err := BuildTwiML("hi", true)
	require.NoError(t, err)
	assert.Equal(t, want, *fake.params.Twiml)
}

func TestTwilioProviderPlaceCallError(t *testing.T) {
	provider := &TwilioProvider{api: &fakeCallAPI{err: errors.New("unreachable")}}

	_, err := provider.PlaceCall(context.Background(), &CallRequest{To: "+1", Message: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
