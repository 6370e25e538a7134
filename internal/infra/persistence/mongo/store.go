// Package mongopersistence implements the repositories on MongoDB.
//
// Documents keep the field names the PlantGuard collections have always used,
// so existing data stays readable.
package mongopersistence

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	PredictionsCollection = "predictions"
	ContactsCollection    = "contacts"
	UsersCollection       = "users"
)

// Store bundles the database handle shared by the repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	indexMu    sync.Mutex
	indexReady bool
}

// NewStore selects database dbName on an existing client.
func NewStore(client *mongo.Client, dbName string) *Store {
	if client == nil {
		panic("mongo client cannot be nil for Store")
	}
	return &Store{client: client, db: client.Database(dbName)}
}

// EnsureIndexes creates the unique email index on users. Idempotent.
// Once it succeeds later calls return immediately; after a failure the next
// call tries again.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if s.indexReady {
		return nil
	}

	_, err := s.db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongo: create users email index: %w", err)
	}
	_, err = s.db.Collection(PredictionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: create predictions created_at index: %w", err)
	}
	s.indexReady = true
	return nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Name is the health label of this store.
func (s *Store) Name() string { return "mongodb" }

// Disconnect closes the client.
func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}
