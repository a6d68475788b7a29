package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"bloodconnect/internal/models"
	"bloodconnect/internal/utils"
	"bloodconnect/pkg/cache"
)

type MockDonorRepository struct {
	mock.Mock
}

func (m *MockDonorRepository) FindDonors(ctx context.Context, filter models.DonorFilter) ([]*models.Donor, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Donor), args.Error(1)
}

func (m *MockDonorRepository) GetByID(ctx context.Context, id string) (*models.Donor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Donor), args.Error(1)
}

// memoryDonorRepository applies the same predicate as the real stores.
type memoryDonorRepository struct {
	donors []*models.Donor
	err    error
}

func (r *memoryDonorRepository) FindDonors(_ context.Context, filter models.DonorFilter) ([]*models.Donor, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.Donor
	for _, d := range r.donors {
		if !d.IsDonor {
			continue
		}
		if !filter.MatchesAnyType() && d.BloodType != filter.BloodType {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *memoryDonorRepository) GetByID(_ context.Context, id string) (*models.Donor, error) {
	for _, d := range r.donors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, utils.ErrNotFound
}

type memoryEmergencyRepository struct {
	mu        sync.Mutex
	requests  map[string]*models.EmergencyRequest
	seq       int
	createErr error
	creates   int
}

func newMemoryEmergencyRepository() *memoryEmergencyRepository {
	return &memoryEmergencyRepository{requests: make(map[string]*models.EmergencyRequest)}
}

func (r *memoryEmergencyRepository) Create(_ context.Context, request *models.EmergencyRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	request.ID = fmt.Sprintf("req-%d", r.seq)
	request.Status = models.EmergencyStatusActive
	request.CreatedAt = time.Date(2024, 3, 1, 10, 0, r.seq, 0, time.UTC)
	stored := *request
	r.requests[request.ID] = &stored
	return nil
}

func (r *memoryEmergencyRepository) GetByID(_ context.Context, id string) (*models.EmergencyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("emergency request %s: %w", id, utils.ErrNotFound)
	}
	out := *req
	return &out, nil
}

func (r *memoryEmergencyRepository) UpdateStatus(_ context.Context, id string, status models.EmergencyStatus) (*models.EmergencyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("emergency request %s: %w", id, utils.ErrNotFound)
	}
	if req.Status != status {
		req.Status = status
		if status == models.EmergencyStatusClosed {
			now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			req.ClosedAt = &now
		}
	}
	out := *req
	return &out, nil
}

func (r *memoryEmergencyRepository) ListActive(_ context.Context, limit int) ([]*models.EmergencyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.EmergencyRequest
	for _, req := range r.requests {
		if req.IsActive() {
			c := *req
			out = append(out, &c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type notifierCall struct {
	Channel string
	Phone   string
	Message string
}

// fakeNotifier records calls and lets tests decide each result.
type fakeNotifier struct {
	mu       sync.Mutex
	calls    []notifierCall
	fail     func(channel, phone string) error
	block    bool
	delay    time.Duration
	inFlight int32
	maxSeen  int32
}

func (n *fakeNotifier) record(ctx context.Context, channel, phone, message string) (string, error) {
	cur := atomic.AddInt32(&n.inFlight, 1)
	defer atomic.AddInt32(&n.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&n.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt32(&n.maxSeen, seen, cur) {
			break
		}
	}

	n.mu.Lock()
	n.calls = append(n.calls, notifierCall{Channel: channel, Phone: phone, Message: message})
	n.mu.Unlock()

	if n.block {
		<-ctx.Done()
		return "", fmt.Errorf("%w: %v", utils.ErrNotification, ctx.Err())
	}
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrNotification, err)
	}
	if n.fail != nil {
		if err := n.fail(channel, phone); err != nil {
			return "", err
		}
	}
	return channel + "-" + phone, nil
}

func (n *fakeNotifier) SendSMS(ctx context.Context, phone, message string) (string, error) {
	return n.record(ctx, utils.ChannelSMS, phone, message)
}

func (n *fakeNotifier) PlaceCall(ctx context.Context, phone, message string) (string, error) {
	return n.record(ctx, utils.ChannelCall, phone, message)
}

func (n *fakeNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*EmergencyEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *EmergencyEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// memoryCache implements CacheService without Redis.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	ttls  map[string]time.Duration
	sets  map[string]int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		items: make(map[string][]byte),
		ttls:  make(map[string]time.Duration),
		sets:  make(map[string]int),
	}
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

func (c *memoryCache) ttl(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

func (c *memoryCache) setCount(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets[key]
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return fmt.Errorf("failed to get cache key %s: %w", key, cache.ErrCacheMiss)
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	c.ttls[key] = expiration
	c.sets[key]++
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.items, key)
		delete(c.ttls, key)
	}
	return nil
}

func (c *memoryCache) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		return false, nil
	}
	c.items[key] = data
	c.ttls[key] = expiration
	return true, nil
}

func donorAt(id string, bt models.BloodType, lat, lng float64, phone string) *models.Donor {
	loc := utils.Coordinate{Lat: lat, Lng: lng}
	return &models.Donor{ID: id, FullName: "Donor " + id, BloodType: bt, IsDonor: true, Location: &loc, Phone: phone}
}
