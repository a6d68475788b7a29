package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bloodconnect/internal/models"
	"bloodconnect/internal/repositories/interfaces"
	"bloodconnect/pkg/database"
)

type donorRepository struct {
	collection *mongo.Collection
}

func NewDonorRepository(db *mongo.Database) interfaces.DonorRepository {
	return &donorRepository{
		collection: db.Collection(database.CollectionProfiles),
	}
}

func (r *donorRepository) FindDonors(ctx context.Context, filter models.DonorFilter) ([]*models.Donor, error) {
	query := bson.M{"is_donor": true}
	if !filter.MatchesAnyType() {
		query["blood_type"] = filter.BloodType
	}

	opts := options.Find().SetProjection(bson.M{
		"full_name":     1,
		"blood_type":    1,
		"is_donor":      1,
		"location":      1,
		"phone":         1,
		"last_donation": 1,
	})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, translateError("find donors", err)
	}
	defer cursor.Close(ctx)

	var donors []*models.Donor
	for cursor.Next(ctx) {
		var doc donorDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, translateError("decode donor", err)
		}
		donors = append(donors, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, translateError("iterate donors", err)
	}

	return donors, nil
}

func (r *donorRepository) GetByID(ctx context.Context, id string) (*models.Donor, error) {
	var doc donorDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return nil, translateError(fmt.Sprintf("get donor %s", id), err)
	}
	return doc.toModel(), nil
}
