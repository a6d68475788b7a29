package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bloodconnect/internal/models"
	"bloodconnect/internal/repositories/interfaces"
	"bloodconnect/internal/utils"
	"bloodconnect/pkg/database"
)

type emergencyRepository struct {
	collection *mongo.Collection
	cache      interfaces.CacheService
	now        func() time.Time
}

// NewEmergencyRepository keeps active requests in cache when cache is non-nil.
func NewEmergencyRepository(db *mongo.Database, cache interfaces.CacheService) interfaces.EmergencyRepository {
	return &emergencyRepository{
		collection: db.Collection(database.CollectionEmergencyRequests),
		cache:      cache,
		now:        time.Now,
	}
}

func (r *emergencyRepository) Create(ctx context.Context, request *models.EmergencyRequest) error {
	request.CreatedAt = r.now().UTC().Truncate(time.Millisecond)
	request.Status = models.EmergencyStatusActive
	request.ClosedAt = nil

	doc := newEmergencyDocument(request)
	doc.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return translateError("create emergency request", err)
	}

	request.ID = doc.ID.Hex()
	r.cacheEmergency(ctx, request)

	return nil
}

func (r *emergencyRepository) GetByID(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("emergency request %q: %w", id, utils.ErrNotFound)
	}

	if request := r.getEmergencyFromCache(ctx, id); request != nil {
		return request, nil
	}

	var doc emergencyDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateError(fmt.Sprintf("get emergency request %s", id), err)
	}

	request := doc.toModel()
	r.cacheEmergency(ctx, request)

	return request, nil
}

func (r *emergencyRepository) UpdateStatus(ctx context.Context, id string, status models.EmergencyStatus) (*models.EmergencyRequest, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("emergency request %q: %w", id, utils.ErrNotFound)
	}

	set := bson.M{"status": status}
	if status == models.EmergencyStatusClosed {
		set["closed_at"] = r.now().UTC().Truncate(time.Millisecond)
	}

	// Only a real transition writes, so closed_at keeps its first value.
	filter := bson.M{"_id": oid, "status": bson.M{"$ne": status}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc emergencyDocument
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if err == nil {
		r.invalidateEmergencyCache(ctx, id)
		return doc.toModel(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, translateError("update emergency request status", err)
	}

	// Either missing or already in the target status.
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateError(fmt.Sprintf("get emergency request %s", id), err)
	}
	return doc.toModel(), nil
}

func (r *emergencyRepository) ListActive(ctx context.Context, limit int) ([]*models.EmergencyRequest, error) {
	if limit <= 0 {
		limit = utils.DefaultActiveRequestList
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"status": models.EmergencyStatusActive}, opts)
	if err != nil {
		return nil, translateError("list active emergency requests", err)
	}
	defer cursor.Close(ctx)

	requests := make([]*models.EmergencyRequest, 0, limit)
	for cursor.Next(ctx) {
		var doc emergencyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, translateError("decode emergency request", err)
		}
		requests = append(requests, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, translateError("iterate emergency requests", err)
	}

	return requests, nil
}

func (r *emergencyRepository) cacheEmergency(ctx context.Context, request *models.EmergencyRequest) {
	if r.cache != nil && request.IsActive() {
		_ = r.cache.Set(ctx, utils.CacheEmergencyPrefix+request.ID, request, utils.ActiveEmergencyCacheTTL)
	}
}

func (r *emergencyRepository) getEmergencyFromCache(ctx context.Context, id string) *models.EmergencyRequest {
	if r.cache == nil {
		return nil
	}

	var request models.EmergencyRequest
	if err := r.cache.Get(ctx, utils.CacheEmergencyPrefix+id, &request); err != nil {
		return nil
	}
	return &request
}

func (r *emergencyRepository) invalidateEmergencyCache(ctx context.Context, id string) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, utils.CacheEmergencyPrefix+id)
	}
}
