package services

import (
	"context"
	"errors"
	"fmt"

	"bloodconnect/internal/utils"
	"bloodconnect/pkg/logger"
	"bloodconnect/pkg/sms"
	"bloodconnect/pkg/voice"
)

// Notifier delivers emergency notifications. Every error wraps
// utils.ErrNotification.
type Notifier interface {
	SendSMS(ctx context.Context, phone, message string) (deliveryID string, err error)
	PlaceCall(ctx context.Context, phone, message string) (deliveryID string, err error)
}

var errVoiceNotConfigured = errors.New("voice provider not configured")

type notifier struct {
	smsProvider  sms.SMSProvider
	callProvider voice.CallProvider
	logger       *logger.Logger
}

// NewNotifier accepts a nil callProvider; calls then fail per recipient.
func NewNotifier(smsProvider sms.SMSProvider, callProvider voice.CallProvider, logger *logger.Logger) Notifier {
	return &notifier{
		smsProvider:  smsProvider,
		callProvider: callProvider,
		logger:       logger,
	}
}

func (n *notifier) SendSMS(ctx context.Context, phone, message string) (string, error) {
	to := utils.NormalizePhone(phone)
	if !utils.IsValidPhone(to) {
		return "", fmt.Errorf("%w: invalid phone number %s", utils.ErrNotification, utils.MaskPhone(phone))
	}

	resp, err := withContext(ctx, func() (*sms.SMSResponse, error) {
		return n.smsProvider.SendSMS(ctx, &sms.SMSRequest{
			To:      to,
			Message: message,
			Type:    "transactional",
		})
	})
	if err != nil {
		return "", fmt.Errorf("%w: sms via %s to %s: %v", utils.ErrNotification, n.smsProvider.Name(), utils.MaskPhone(to), err)
	}

	return resp.MessageID, nil
}

func (n *notifier) PlaceCall(ctx context.Context, phone, message string) (string, error) {
	if n.callProvider == nil {
		return "", fmt.Errorf("%w: %v", utils.ErrNotification, errVoiceNotConfigured)
	}

	to := utils.NormalizePhone(phone)
	if !utils.IsValidPhone(to) {
		return "", fmt.Errorf("%w: invalid phone number %s", utils.ErrNotification, utils.MaskPhone(phone))
	}

	resp, err := withContext(ctx, func() (*voice.CallResponse, error) {
		return n.callProvider.PlaceCall(ctx, &voice.CallRequest{
			To:        to,
			Message:   message,
			Emergency: true,
		})
	})
	if err != nil {
		return "", fmt.Errorf("%w: call via %s to %s: %v", utils.ErrNotification, n.callProvider.Name(), utils.MaskPhone(to), err)
	}

	return resp.CallID, nil
}

// withContext bounds a provider call that may ignore ctx. The call keeps
// running in the background after ctx is done; its result is discarded.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)
	go func() {
		value, err := fn()
		done <- result{value: value, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
