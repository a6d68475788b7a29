package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloodconnect/internal/models"
	"bloodconnect/internal/utils"
	"bloodconnect/pkg/cache"
)

// Reservation is what a caller learns when it claims an idempotency key.
// A zero Reservation means nothing has been stored for the key yet.
type Reservation struct {
	// Outcome is set when a dispatch under the key already finished.
	Outcome *models.DispatchOutcome
	// RequestID is set when an earlier attempt stored the request but did
	// not finish dispatching it. The caller must reuse that request.
	RequestID string
}

// IdempotencyStore guards CreateAndDispatch against client retries.
//
// Each key has two entries: a record that outlives the dispatch (the stored
// request id, then the outcome) and a short hold that marks a dispatch in
// flight. The holder keeps the hold alive with Refresh.
type IdempotencyStore interface {
	// Reserve claims key. It fails with utils.ErrInProgress while another
	// dispatch holds the key.
	Reserve(ctx context.Context, key string) (*Reservation, error)
	// Attach records the emergency request created under key.
	Attach(ctx context.Context, key, requestID string) error
	// Refresh extends the hold on key.
	Refresh(ctx context.Context, key string) error
	// Complete stores the outcome and drops the hold.
	Complete(ctx context.Context, key string, outcome *models.DispatchOutcome) error
	// Release drops the hold and keeps any attached request for a retry.
	Release(ctx context.Context, key string) error
}

const (
	idempotencyHeld     = "held"
	idempotencyAttached = "attached"
	idempotencyDone     = "done"
)

type idempotencyRecord struct {
	State     string                  `json:"state"`
	RequestID string                  `json:"requestId,omitempty"`
	Outcome   *models.DispatchOutcome `json:"outcome,omitempty"`
}

type cacheIdempotencyStore struct {
	cache   CacheService
	ttl     time.Duration
	holdTTL time.Duration
}

func NewIdempotencyStore(cache CacheService, ttl time.Duration) IdempotencyStore {
	if ttl <= 0 {
		ttl = utils.IdempotencyKeyTTL
	}
	return &cacheIdempotencyStore{
		cache:   cache,
		ttl:     ttl,
		holdTTL: utils.IdempotencyHoldTTL,
	}
}

func (s *cacheIdempotencyStore) Reserve(ctx context.Context, key string) (*Reservation, error) {
	record, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if record.Outcome != nil {
		return &Reservation{Outcome: record.Outcome}, nil
	}

	held, err := s.cache.SetNX(ctx, holdKey(key), idempotencyRecord{State: idempotencyHeld}, s.holdTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w: %w", utils.ErrStoreUnavailable, err)
	}
	if !held {
		return nil, utils.ErrInProgress
	}

	// The previous holder may have finished between the read and the claim.
	record, err = s.load(ctx, key)
	if err != nil {
		_ = s.cache.Delete(ctx, holdKey(key))
		return nil, err
	}
	if record.Outcome != nil {
		_ = s.cache.Delete(ctx, holdKey(key))
		return &Reservation{Outcome: record.Outcome}, nil
	}

	return &Reservation{RequestID: record.RequestID}, nil
}

func (s *cacheIdempotencyStore) Attach(ctx context.Context, key, requestID string) error {
	record := idempotencyRecord{State: idempotencyAttached, RequestID: requestID}
	if err := s.cache.Set(ctx, recordKey(key), record, s.ttl); err != nil {
		return fmt.Errorf("failed to attach request to idempotency key: %w", err)
	}
	return nil
}

func (s *cacheIdempotencyStore) Refresh(ctx context.Context, key string) error {
	if err := s.cache.Set(ctx, holdKey(key), idempotencyRecord{State: idempotencyHeld}, s.holdTTL); err != nil {
		return fmt.Errorf("failed to refresh idempotency hold: %w", err)
	}
	return nil
}

func (s *cacheIdempotencyStore) Complete(ctx context.Context, key string, outcome *models.DispatchOutcome) error {
	if outcome == nil {
		return errors.New("idempotency: cannot complete a key without an outcome")
	}

	record := idempotencyRecord{State: idempotencyDone, RequestID: outcome.RequestID, Outcome: outcome}
	if err := s.cache.Set(ctx, recordKey(key), record, s.ttl); err != nil {
		return fmt.Errorf("failed to store dispatch outcome: %w", err)
	}
	return s.cache.Delete(ctx, holdKey(key))
}

func (s *cacheIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, holdKey(key))
}

func (s *cacheIdempotencyStore) load(ctx context.Context, key string) (idempotencyRecord, error) {
	var record idempotencyRecord
	err := s.cache.Get(ctx, recordKey(key), &record)
	switch {
	case err == nil:
		return record, nil
	case errors.Is(err, cache.ErrCacheMiss):
		return idempotencyRecord{}, nil
	default:
		return idempotencyRecord{}, fmt.Errorf("failed to read idempotency key: %w: %w", utils.ErrStoreUnavailable, err)
	}
}

func recordKey(key string) string {
	return utils.CacheIdempotencyPrefix + key
}

func holdKey(key string) string {
	return utils.CacheIdempotencyPrefix + key + ":hold"
}
