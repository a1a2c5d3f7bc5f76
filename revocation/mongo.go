package revocation

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection is the default collection name for revocation records.
const MongoCollection = "invalidated_tokens"

type mongoRecord struct {
	JTI       string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// MongoStore keeps one document per revoked jti, keyed by _id.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore wraps coll. Call EnsureIndexes once at startup.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{collection: coll}
}

// EnsureIndexes creates the TTL index that lets MongoDB expire records.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: mongooptions.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Put implements Store.
func (s *MongoStore) Put(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.PutIfAbsent(ctx, jti, expiresAt)
	return err
}

// PutIfAbsent implements ConditionalStore. A duplicate key means the record
// already exists.
func (s *MongoStore) PutIfAbsent(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	if jti == "" {
		return false, ErrInvalidRecord
	}
	_, err := s.collection.InsertOne(ctx, mongoRecord{
		JTI:       jti,
		ExpiresAt: expiresAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return true, nil
}

// Contains implements Store.
func (s *MongoStore) Contains(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := s.collection.CountDocuments(ctx, bson.M{"_id": jti}, mongooptions.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return n > 0, nil
}

// Prune implements Pruner. The TTL monitor runs about once a minute; Prune
// lets the sweeper remove records on its own schedule.
func (s *MongoStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return res.DeletedCount, nil
}
