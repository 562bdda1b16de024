package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
	"github.com/grenier-labs/marketplace/internal/user/entity"
)

var (
	ErrDuplicateEmail = errors.New("email already in use")
	ErrUserNotFound   = errors.New("user not found")
)

type userDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Username   string             `bson:"username"`
	Email      string             `bson:"email"`
	Password   string             `bson:"password"`
	Newsletter bool               `bson:"newsletter"`
	Avatar     *imageDocument     `bson:"avatar,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (d *userDocument) toEntity() *entity.User {
	u := &entity.User{
		ID:         d.ID.Hex(),
		Username:   d.Username,
		Email:      d.Email,
		Password:   d.Password,
		Newsletter: d.Newsletter,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.Avatar != nil {
		avatar := domain.ImageRef(*d.Avatar)
		u.Avatar = &avatar
	}
	return u
}

type UserRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewUserRepository(db *mongo.Database, logger *zap.Logger) *UserRepository {
	collection := db.Collection("users")

	// Ensure the unique email index (idempotent operation).
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logger.Warn("failed to create unique email index (may already exist)", zap.Error(err))
	}

	return &UserRepository{
		collection: collection,
		logger:     logger.Named("UserRepository"),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	now := time.Now()
	doc := &userDocument{
		ID:         primitive.NewObjectID(),
		Username:   user.Username,
		Email:      user.Email,
		Password:   user.Password,
		Newsletter: user.Newsletter,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	objectID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return ErrUserNotFound
	}

	update := bson.M{
		"username":   user.Username,
		"newsletter": user.Newsletter,
		"updated_at": time.Now(),
	}
	if user.Avatar != nil {
		update["avatar"] = imageDocument(*user.Avatar)
	}
	res, err := r.collection.UpdateByID(ctx, objectID, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var doc userDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toEntity(), nil
}

// FindAccount lets the listing core expand listing owners without seeing
// full user records.
func (r *UserRepository) FindAccount(ctx context.Context, id string) (*domain.Account, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Account(), nil
}
