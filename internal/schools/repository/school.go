package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	schoolserrors "labreserve/internal/schools/errors"
	"labreserve/pkg/config"
	"labreserve/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Schools"
)

type mongoSchoolRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type SchoolRepository interface {
	Create(ctx context.Context, school *model.School) error
	FindByID(ctx context.Context, id string) (*model.School, error)
	FindByCode(ctx context.Context, code string) (*model.School, error)
	FindAll(ctx context.Context) ([]*model.School, error)
	Update(ctx context.Context, id string, school *model.School) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) error
}

func NewMongoSchoolRepository(cfg *config.Config) SchoolRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSchoolRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoSchoolRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoSchoolRepository) Create(ctx context.Context, school *model.School) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	school.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, school)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return schoolserrors.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create school: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		school.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSchoolRepository) FindByID(ctx context.Context, id string) (*model.School, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", schoolserrors.ErrInvalidID, id)
	}

	var school model.School
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&school)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, schoolserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find school: %w", err)
	}
	return &school, nil
}

func (r *mongoSchoolRepository) FindByCode(ctx context.Context, code string) (*model.School, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var school model.School
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&school)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, schoolserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find school by code: %w", err)
	}
	return &school, nil
}

func (r *mongoSchoolRepository) FindAll(ctx context.Context) ([]*model.School, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find schools: %w", err)
	}
	defer cursor.Close(ctx)

	var schools []*model.School
	if err = cursor.All(ctx, &schools); err != nil {
		return nil, fmt.Errorf("failed to decode schools: %w", err)
	}

	return schools, nil
}

func (r *mongoSchoolRepository) Update(ctx context.Context, id string, school *model.School) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", schoolserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":  school.Name,
			"color": school.Color,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update school: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, schoolserrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoSchoolRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", schoolserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete school: %w", err)
	}

	if result.DeletedCount == 0 {
		return schoolserrors.ErrNotFound
	}

	return nil
}
