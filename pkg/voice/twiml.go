package voice

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"
)

const (
	emergencyPrompt = "This is an emergency blood donation request. Please respond as soon as possible."
	closingPrompt   = "Thank you for your support."
)

// BuildTwiML renders the spoken script for a notification call.
func BuildTwiML(message string, emergency bool) (string, error) {
	verbs := []twiml.Element{
		&twiml.VoiceSay{Message: message},
	}
	if emergency {
		verbs = append(verbs,
			&twiml.VoicePause{Length: "1"},
			&twiml.VoiceSay{Message: emergencyPrompt},
		)
	}
	verbs = append(verbs,
		&twiml.VoicePause{Length: "1"},
		&twiml.VoiceSay{Message: closingPrompt},
	)

	script, err := twiml.Voice(verbs)
	if err != nil {
		return "", fmt.Errorf("failed to build call script: %w", err)
	}
	return script, nil
}
