package store

import (
	"context" // Request scoped cancellation
	"errors"  // Error matching
	"fmt"     // Error wrapping
	"time"    // Update timestamps

	"ebank_api/internal/domain" // Importing domain models

	"go.mongodb.org/mongo-driver/v2/bson"          // BSON filters and updates
	"go.mongodb.org/mongo-driver/v2/mongo"         // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options" // Index and update options
)

// UsersCollection is the Mongo collection holding user documents.
const UsersCollection = "users"

// MongoStore persists users as documents in MongoDB.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore uses the users collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(UsersCollection)}
}

// EnsureIndexes creates the unique email index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

// FindByEmail looks up a user by exact email
func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// FindByID looks up a user by id
func (s *MongoStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// Insert stores a new user; the unique index rejects a duplicate email
func (s *MongoStore) Insert(ctx context.Context, user *domain.User) error {
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// SetAvatar records the avatar reference and returns the updated document
func (s *MongoStore) SetAvatar(ctx context.Context, id, ref string) (*domain.User, error) {
	update := bson.M{"$set": bson.M{
		"isAvatarImageSet": true,
		"avatarImage":      ref,
		"updatedAt":        time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.User
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := s.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
