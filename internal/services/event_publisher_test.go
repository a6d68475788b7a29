package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodconnect/internal/models"
	"bloodconnect/internal/utils"
	"bloodconnect/pkg/logger"
	"bloodconnect/pkg/websocket"
)

type fakeBroadcaster struct {
	messages []*websocket.Message
	full     bool
}

func (b *fakeBroadcaster) Broadcast(message *websocket.Message) bool {
	if b.full {
		return false
	}
	b.messages = append(b.messages, message)
	return true
}

type fakePubSub struct {
	channel string
	payload []byte
	err     error
}

func (p *fakePubSub) Publish(_ context.Context, channel string, message []byte) error {
	p.channel = channel
	p.payload = message
	return p.err
}

func (p *fakePubSub) Subscribe(context.Context, ...string) *redis.PubSub {
	return nil
}

func sampleRequest() *models.EmergencyRequest {
	return &models.EmergencyRequest{
		ID:            "req-1",
		BloodType:     models.BloodTypeONeg,
		Hospital:      "City General",
		Urgency:       models.UrgencyCritical,
		UnitsRequired: 3,
		Origin:        utils.Coordinate{Lat: 37.77, Lng: -122.42},
		Status:        models.EmergencyStatusActive,
		CreatedAt:     time.Now(),
	}
}

func TestHubPublisher_RoutesToBloodTypeRoom(t *testing.T) {
	hub := &fakeBroadcaster{}
	publisher := NewHubPublisher(hub, logger.NewNop())

	publisher.Publish(context.Background(), NewEmergencyEvent(utils.EventEmergencyCreated, sampleRequest(), 4))

	require.Len(t, hub.messages, 1)
	msg := hub.messages[0]
	assert.Equal(t, utils.EventEmergencyCreated, msg.Type)
	assert.ElementsMatch(t, []string{"blood_type:O-", websocket.RoomAll}, msg.Rooms)

	event, ok := msg.Data.(*EmergencyEvent)
	require.True(t, ok)
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, 4, event.NotifiedCount)
}

func TestHubPublisher_DroppedEventDoesNotPanic(t *testing.T) {
	publisher := NewHubPublisher(&fakeBroadcaster{full: true}, logger.NewNop())
	assert.NotPanics(t, func() {
		publisher.Publish(context.Background(), NewEmergencyEvent(utils.EventEmergencyClosed, sampleRequest(), 0))
	})
}

func TestRedisEventPublisher(t *testing.T) {
	client := &fakePubSub{}
	publisher := NewRedisEventPublisher(client, "emergencies", logger.NewNop())

	publisher.Publish(context.Background(), NewEmergencyEvent(utils.EventEmergencyCreated, sampleRequest(), 2))

	assert.Equal(t, "emergencies", client.channel)
	var event EmergencyEvent
	require.NoError(t, json.Unmarshal(client.payload, &event))
	assert.Equal(t, models.BloodTypeONeg, event.BloodType)
	assert.Equal(t, "City General", event.Hospital)
	assert.Equal(t, 2, event.NotifiedCount)

	client.err = errors.New("connection reset")
	assert.NotPanics(t, func() {
		publisher.Publish(context.Background(), NewEmergencyEvent(utils.EventEmergencyCreated, sampleRequest(), 0))
	})
}

func TestBuildMessages(t *testing.T) {
	req := sampleRequest()

	assert.Equal(t, "EMERGENCY BLOOD REQUEST: O- blood needed at City General. Urgency: critical.", BuildSMSMessage(req))

	req.Details = "Ward 4"
	assert.Equal(t, "EMERGENCY BLOOD REQUEST: O- blood needed at City General. Urgency: critical. Ward 4", BuildSMSMessage(req))
	assert.Contains(t, BuildCallMessage(req), "for O- blood type at City General")
	assert.Contains(t, BuildCallMessage(req), "Ward 4")
}
