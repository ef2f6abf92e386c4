package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"apibase/internal/user"
	"apibase/pkg/requestcontext"
	"apibase/pkg/sentinel"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// Mongo persists users in a MongoDB collection. Uniqueness comes from the
// unique index on email ensured at construction.
type Mongo struct {
	c *mongo.Collection
}

// NewMongo constructs the store and ensures the unique email index.
func NewMongo(ctx context.Context, db *mongo.Database) (*Mongo, error) {
	coll := db.Collection("users")
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("ensure users email index: %w", err)
	}
	return &Mongo{c: coll}, nil
}

func (s *Mongo) Create(ctx context.Context, u user.User) (user.User, error) {
	now := requestcontext.Now(ctx)
	doc := userDoc{
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := s.c.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, fmt.Errorf("email %q: %w", u.Email, sentinel.ErrConflict)
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return user.User{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	u.ID = oid.Hex()
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

func (s *Mongo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var doc userDoc
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return user.User{}, sentinel.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
