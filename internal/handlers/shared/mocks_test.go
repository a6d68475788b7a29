package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bloodconnect/internal/models"
)

type MockDonorMatcher struct {
	mock.Mock
}

func (m *MockDonorMatcher) Find(ctx context.Context, criteria models.SearchCriteria) ([]models.MatchResult, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MatchResult), args.Error(1)
}

type MockEmergencyDispatcher struct {
	mock.Mock
}

func (m *MockEmergencyDispatcher) CreateAndDispatch(ctx context.Context, params *models.CreateEmergencyParams, idempotencyKey string) (*models.DispatchOutcome, error) {
	args := m.Called(ctx, params, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DispatchOutcome), args.Error(1)
}

func (m *MockEmergencyDispatcher) Get(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmergencyRequest), args.Error(1)
}

func (m *MockEmergencyDispatcher) ListActive(ctx context.Context, limit int) ([]*models.EmergencyRequest, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EmergencyRequest), args.Error(1)
}

func (m *MockEmergencyDispatcher) Close(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmergencyRequest), args.Error(1)
}
