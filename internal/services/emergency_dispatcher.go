package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bloodconnect/internal/models"
	"bloodconnect/internal/repositories/interfaces"
	"bloodconnect/internal/utils"
	"bloodconnect/pkg/logger"
)

type EmergencyDispatcher interface {
	// CreateAndDispatch stores the request and notifies matched donors.
	// A non-empty idempotencyKey makes retries return the first outcome.
	CreateAndDispatch(ctx context.Context, params *models.CreateEmergencyParams, idempotencyKey string) (*models.DispatchOutcome, error)
	Get(ctx context.Context, id string) (*models.EmergencyRequest, error)
	ListActive(ctx context.Context, limit int) ([]*models.EmergencyRequest, error)
	// Close is idempotent: closing a closed request returns it unchanged.
	Close(ctx context.Context, id string) (*models.EmergencyRequest, error)
}

// DispatcherConfig tunes the fan-out. Emergencies always search
// utils.EmergencyRadiusKM around the origin.
type DispatcherConfig struct {
	MaxConcurrency int
	AttemptTimeout time.Duration
	// HoldRefresh is how often a running dispatch renews its idempotency hold.
	HoldRefresh time.Duration
}

type emergencyDispatcher struct {
	emergencyRepo interfaces.EmergencyRepository
	matcher       DonorMatcher
	notifier      Notifier
	idempotency   IdempotencyStore
	events        EventPublisher
	config        DispatcherConfig
	logger        *logger.Logger
}

// NewEmergencyDispatcher accepts nil idempotency and events.
func NewEmergencyDispatcher(
	emergencyRepo interfaces.EmergencyRepository,
	matcher DonorMatcher,
	notifier Notifier,
	idempotency IdempotencyStore,
	events EventPublisher,
	config DispatcherConfig,
	logger *logger.Logger,
) EmergencyDispatcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = utils.NotificationConcurrency
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = utils.NotificationTimeout
	}
	if config.HoldRefresh <= 0 {
		config.HoldRefresh = utils.IdempotencyHoldRefresh
	}

	return &emergencyDispatcher{
		emergencyRepo: emergencyRepo,
		matcher:       matcher,
		notifier:      notifier,
		idempotency:   idempotency,
		events:        events,
		config:        config,
		logger:        logger,
	}
}

// attempt is one notification to one donor over one channel.
type attempt struct {
	donor   *models.Donor
	channel string
	message string
}

func (d *emergencyDispatcher) CreateAndDispatch(ctx context.Context, params *models.CreateEmergencyParams, idempotencyKey string) (outcome *models.DispatchOutcome, err error) {
	if err := validateEmergencyParams(params); err != nil {
		return nil, err
	}

	var (
		key         string
		reservation *Reservation
	)
	if idempotencyKey != "" && d.idempotency != nil {
		key = params.RequestedBy + ":" + idempotencyKey
		res, reserveErr := d.idempotency.Reserve(ctx, key)
		if reserveErr != nil {
			return nil, reserveErr
		}
		if res.Outcome != nil {
			d.logger.WithEmergencyID(res.Outcome.RequestID).Info("Replaying dispatch outcome for idempotency key")
			return res.Outcome, nil
		}
		reservation = res

		stopHold := d.holdReservation(ctx, key)
		defer func() {
			stopHold()
			// Use a fresh context: the request may already be cancelled.
			cleanupCtx := context.WithoutCancel(ctx)
			if err != nil || outcome == nil {
				if relErr := d.idempotency.Release(cleanupCtx, key); relErr != nil {
					d.logger.WithError(relErr).Warn("Failed to release idempotency key")
				}
				return
			}
			if cErr := d.idempotency.Complete(cleanupCtx, key, outcome); cErr != nil {
				d.logger.WithError(cErr).Warn("Failed to store dispatch outcome")
			}
		}()
	}

	request, err := d.storedRequest(ctx, params, key, reservation)
	if err != nil {
		return nil, err
	}

	log := d.logger.WithContext(ctx).WithEmergencyID(request.ID)

	matches, err := d.matcher.Find(ctx, models.SearchCriteria{
		BloodType: request.BloodType,
		Origin:    request.Origin,
		RadiusKM:  utils.EmergencyRadiusKM,
	})
	if err != nil {
		log.WithError(err).Error("Donor matching failed after request was stored")
		return nil, storeError("failed to match donors", err)
	}

	attempts := planAttempts(request, matches)

	// Notifications must not stop when the caller goes away.
	results := d.fanOut(context.WithoutCancel(ctx), request.ID, attempts)

	outcome = &models.DispatchOutcome{
		RequestID:       request.ID,
		MatchedCount:    len(matches),
		NotifiedCount:   countNotified(results),
		RespondingCount: 0,
		PerRecipient:    results,
	}

	log.LogDispatchEvent(request.ID, utils.EventEmergencyCreated, map[string]interface{}{
		"blood_type": request.BloodType,
		"urgency":    request.Urgency,
		"matched":    outcome.MatchedCount,
		"attempts":   len(attempts),
		"notified":   outcome.NotifiedCount,
	})

	if d.events != nil {
		d.events.Publish(ctx, NewEmergencyEvent(utils.EventEmergencyCreated, request, outcome.NotifiedCount))
	}

	return outcome, nil
}

// storedRequest returns the request a dispatch works on. A retry under an
// idempotency key reuses the request an earlier attempt stored.
func (d *emergencyDispatcher) storedRequest(ctx context.Context, params *models.CreateEmergencyParams, key string, reservation *Reservation) (*models.EmergencyRequest, error) {
	if reservation != nil && reservation.RequestID != "" {
		request, err := d.emergencyRepo.GetByID(ctx, reservation.RequestID)
		switch {
		case err == nil:
			d.logger.WithEmergencyID(request.ID).Info("Resuming dispatch for stored emergency request")
			return request, nil
		case !errors.Is(err, utils.ErrNotFound):
			return nil, storeError("failed to load emergency request", err)
		}
	}

	request := &models.EmergencyRequest{
		BloodType:     params.BloodType,
		Hospital:      strings.TrimSpace(params.Hospital),
		Urgency:       params.Urgency,
		UnitsRequired: params.UnitsRequired,
		Details:       strings.TrimSpace(params.Details),
		Origin:        params.Origin,
		RequestedBy:   params.RequestedBy,
		Status:        models.EmergencyStatusActive,
	}

	if err := d.emergencyRepo.Create(ctx, request); err != nil {
		return nil, storeError("failed to create emergency request", err)
	}

	if key != "" {
		if err := d.idempotency.Attach(context.WithoutCancel(ctx), key, request.ID); err != nil {
			d.logger.WithEmergencyID(request.ID).WithError(err).Warn("Failed to attach emergency request to idempotency key")
		}
	}

	return request, nil
}

// holdReservation renews the idempotency hold on key until the returned
// stop function is called.
func (d *emergencyDispatcher) holdReservation(ctx context.Context, key string) (stop func()) {
	holdCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(d.config.HoldRefresh)
		defer ticker.Stop()

		for {
			select {
			case <-holdCtx.Done():
				return
			case <-ticker.C:
				if err := d.idempotency.Refresh(holdCtx, key); err != nil {
					d.logger.WithError(err).Warn("Failed to refresh idempotency hold")
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (d *emergencyDispatcher) Get(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	return d.emergencyRepo.GetByID(ctx, id)
}

func (d *emergencyDispatcher) ListActive(ctx context.Context, limit int) ([]*models.EmergencyRequest, error) {
	return d.emergencyRepo.ListActive(ctx, limit)
}

func (d *emergencyDispatcher) Close(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	current, err := d.emergencyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsActive() {
		return current, nil
	}

	closed, err := d.emergencyRepo.UpdateStatus(ctx, id, models.EmergencyStatusClosed)
	if err != nil {
		return nil, err
	}

	d.logger.WithContext(ctx).LogDispatchEvent(id, utils.EventEmergencyClosed, nil)
	if d.events != nil {
		d.events.Publish(ctx, NewEmergencyEvent(utils.EventEmergencyClosed, closed, 0))
	}

	return closed, nil
}

// fanOut runs every attempt concurrently, bounded by MaxConcurrency. Each
// attempt writes only its own slot.
func (d *emergencyDispatcher) fanOut(ctx context.Context, requestID string, attempts []attempt) []models.RecipientOutcome {
	results := make([]models.RecipientOutcome, len(attempts))

	var g errgroup.Group
	g.SetLimit(d.config.MaxConcurrency)

	for i := range attempts {
		g.Go(func() error {
			results[i] = d.deliver(ctx, requestID, attempts[i])
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *emergencyDispatcher) deliver(ctx context.Context, requestID string, a attempt) (result models.RecipientOutcome) {
	result = models.RecipientOutcome{DonorID: a.donor.ID, Channel: a.channel}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.DeliveryID = ""
			result.Error = fmt.Sprintf("%s: notifier panic: %v", utils.ErrNotification, r)
			d.logger.LogNotificationFailure(requestID, a.donor.ID, a.channel, errors.New(result.Error))
		}
	}()

	attemptCtx, cancel := context.WithTimeout(ctx, d.config.AttemptTimeout)
	defer cancel()

	var (
		deliveryID string
		err        error
	)
	switch a.channel {
	case utils.ChannelSMS:
		deliveryID, err = d.notifier.SendSMS(attemptCtx, a.donor.Phone, a.message)
	case utils.ChannelCall:
		deliveryID, err = d.notifier.PlaceCall(attemptCtx, a.donor.Phone, a.message)
	default:
		err = fmt.Errorf("%w: unknown channel %q", utils.ErrNotification, a.channel)
	}

	if err != nil {
		if !errors.Is(err, utils.ErrNotification) {
			err = fmt.Errorf("%w: %v", utils.ErrNotification, err)
		}
		result.Error = err.Error()
		d.logger.LogNotificationFailure(requestID, a.donor.ID, a.channel, err)
		return result
	}

	result.Success = true
	result.DeliveryID = deliveryID
	return result
}

// planAttempts keeps match order: one SMS per notifiable donor, followed by a
// call when the urgency requires one.
func planAttempts(request *models.EmergencyRequest, matches []models.MatchResult) []attempt {
	smsMessage := BuildSMSMessage(request)
	callMessage := BuildCallMessage(request)
	withCall := request.Urgency.RequiresCall()

	attempts := make([]attempt, 0, len(matches)*2)
	for _, match := range matches {
		if !match.Donor.IsNotifiable() {
			continue
		}
		attempts = append(attempts, attempt{donor: match.Donor, channel: utils.ChannelSMS, message: smsMessage})
		if withCall {
			attempts = append(attempts, attempt{donor: match.Donor, channel: utils.ChannelCall, message: callMessage})
		}
	}
	return attempts
}

func countNotified(results []models.RecipientOutcome) int {
	notified := make(map[string]struct{})
	for _, r := range results {
		if r.Success {
			notified[r.DonorID] = struct{}{}
		}
	}
	return len(notified)
}

func validateEmergencyParams(params *models.CreateEmergencyParams) error {
	if params == nil {
		return fmt.Errorf("%w: missing request body", utils.ErrInvalidRequest)
	}
	if !params.BloodType.IsConcrete() {
		return fmt.Errorf("%w: blood type must be one of %v", utils.ErrInvalidRequest, models.AllBloodTypes())
	}
	if strings.TrimSpace(params.Hospital) == "" {
		return fmt.Errorf("%w: hospital is required", utils.ErrInvalidRequest)
	}
	if !params.Urgency.IsValid() {
		return fmt.Errorf("%w: urgency must be critical, high or medium", utils.ErrInvalidRequest)
	}
	if params.UnitsRequired < utils.MinUnitsRequired {
		return fmt.Errorf("%w: unitsRequired must be at least %d", utils.ErrInvalidRequest, utils.MinUnitsRequired)
	}
	if !params.Origin.IsValid() {
		return fmt.Errorf("%w: origin %s is out of range", utils.ErrInvalidRequest, params.Origin)
	}
	return nil
}

func storeError(msg string, err error) error {
	if errors.Is(err, utils.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, utils.ErrStoreUnavailable, err)
}
