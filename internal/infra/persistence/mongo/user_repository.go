package mongopersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"plantguard/internal/domain"
	"plantguard/internal/repository"
)

// UserRepository implements repository.UserRepository.
type UserRepository struct {
	store *Store
}

// NewUserRepository binds the repository to the users collection.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// FindByEmail returns repository.ErrUserNotFound when nothing matches.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDocument
	err := r.store.collection(UsersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo: find user by email '%s': %w", email, err)
	}
	return doc.toDomain(), nil
}

// Create relies on the unique email index to reject duplicates. It refuses to
// insert while that index cannot be ensured.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("mongo: insert user (email: %s): %w", user.Email, err)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.Password,
		CreatedAt: user.CreatedAt,
	}
	if _, err := r.store.collection(UsersCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("mongo: insert user (email: %s): %w", user.Email, err)
	}
	user.ID = doc.ID.Hex()
	return nil
}
