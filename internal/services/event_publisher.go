package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bloodconnect/internal/models"
	"bloodconnect/internal/utils"
	"bloodconnect/pkg/logger"
	"bloodconnect/pkg/websocket"
)

// EmergencyEvent is the payload pushed to live feed subscribers.
type EmergencyEvent struct {
	Type          string                 `json:"type"`
	RequestID     string                 `json:"requestId"`
	BloodType     models.BloodType       `json:"bloodType"`
	Hospital      string                 `json:"hospital"`
	Urgency       models.Urgency         `json:"urgency"`
	Status        models.EmergencyStatus `json:"status"`
	Origin        utils.Coordinate       `json:"origin"`
	NotifiedCount int                    `json:"notifiedCount"`
}

func NewEmergencyEvent(eventType string, request *models.EmergencyRequest, notified int) *EmergencyEvent {
	return &EmergencyEvent{
		Type:          eventType,
		RequestID:     request.ID,
		BloodType:     request.BloodType,
		Hospital:      request.Hospital,
		Urgency:       request.Urgency,
		Status:        request.Status,
		Origin:        request.Origin,
		NotifiedCount: notified,
	}
}

// EventPublisher is fire-and-forget; failures are logged by implementations.
type EventPublisher interface {
	Publish(ctx context.Context, event *EmergencyEvent)
}

func BloodTypeRoom(bloodType models.BloodType) string {
	return "blood_type:" + string(bloodType)
}

type broadcaster interface {
	Broadcast(message *websocket.Message) bool
}

type hubPublisher struct {
	hub    broadcaster
	logger *logger.Logger
}

// NewHubPublisher delivers events to websocket clients on this instance.
func NewHubPublisher(hub broadcaster, logger *logger.Logger) EventPublisher {
	return &hubPublisher{hub: hub, logger: logger}
}

func (p *hubPublisher) Publish(_ context.Context, event *EmergencyEvent) {
	ok := p.hub.Broadcast(&websocket.Message{
		Type:  event.Type,
		Rooms: []string{BloodTypeRoom(event.BloodType), websocket.RoomAll},
		Data:  event,
	})
	if !ok {
		p.logger.WithEmergencyID(event.RequestID).WithField("event", event.Type).Warn("Emergency event dropped")
	}
}

// RedisPubSub is the subset of pkg/cache.RedisCache used to fan events out
// across instances.
type RedisPubSub interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type redisPublisher struct {
	client  RedisPubSub
	channel string
	logger  *logger.Logger
}

func NewRedisEventPublisher(client RedisPubSub, channel string, logger *logger.Logger) EventPublisher {
	return &redisPublisher{client: client, channel: channel, logger: logger}
}

func (p *redisPublisher) Publish(ctx context.Context, event *EmergencyEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("Failed to marshal emergency event")
		return
	}
	if err := p.client.Publish(context.WithoutCancel(ctx), p.channel, data); err != nil {
		p.logger.WithEmergencyID(event.RequestID).WithError(err).Warn("Failed to publish emergency event")
	}
}

// RunEventRelay forwards events from the Redis channel to local subscribers
// until ctx is cancelled.
func RunEventRelay(ctx context.Context, client RedisPubSub, channel string, local EventPublisher, logger *logger.Logger) error {
	pubsub := client.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event EmergencyEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.WithError(err).Warn("Discarding malformed emergency event")
				continue
			}
			local.Publish(ctx, &event)
		}
	}
}
