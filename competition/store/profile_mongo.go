// competition/store/profile_mongo.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProfileStore represents the MongoDB data store for user profiles.
type MongoProfileStore struct {
	collection *mongo.Collection
}

// NewMongoProfileStore creates a new MongoProfileStore instance.
func NewMongoProfileStore(collection *mongo.Collection) *MongoProfileStore {
	return &MongoProfileStore{collection: collection}
}

// GetProfile retrieves a profile by user id.
func (ps *MongoProfileStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := ps.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", userID, err)
	}
	return &profile, nil
}

// SaveProfile upserts the full profile document.
func (ps *MongoProfileStore) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := ps.collection.ReplaceOne(ctx, bson.M{"_id": profile.ID}, profile, opts); err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.ID, err)
	}
	return nil
}
