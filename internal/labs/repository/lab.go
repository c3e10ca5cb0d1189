package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	labserrors "labreserve/internal/labs/errors"
	"labreserve/pkg/config"
	mongotx "labreserve/pkg/db/mongo"
	"labreserve/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Labs"
)

type mongoLabRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type LabRepository interface {
	Create(ctx context.Context, lab *model.Lab) error
	FindByID(ctx context.Context, id string) (*model.Lab, error)
	FindByName(ctx context.Context, name string) (*model.Lab, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Lab, error)
	FindCandidates(ctx context.Context, minCapacity int, includePermanent bool) ([]*model.Lab, error)
	Update(ctx context.Context, id string, lab *model.Lab) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoLabRepository(cfg *config.Config) LabRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLabRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoLabRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoLabRepository) Create(ctx context.Context, lab *model.Lab) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lab.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, lab)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return labserrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to create lab: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		lab.ID = oid.Hex()
	}

	return nil
}

func (r *mongoLabRepository) FindByID(ctx context.Context, id string) (*model.Lab, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", labserrors.ErrInvalidID, id)
	}

	var lab model.Lab
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&lab)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, labserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find lab: %w", err)
	}
	return &lab, nil
}

// FindByName resolves a lab by its normalized (upper-cased) name. The roster
// import references labs by name.
func (r *mongoLabRepository) FindByName(ctx context.Context, name string) (*model.Lab, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var lab model.Lab
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&lab)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, labserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find lab by name: %w", err)
	}
	return &lab, nil
}

func (r *mongoLabRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Lab, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find labs: %w", err)
	}
	defer cursor.Close(ctx)

	var labs []*model.Lab
	if err = cursor.All(ctx, &labs); err != nil {
		return nil, fmt.Errorf("failed to decode labs: %w", err)
	}

	return labs, nil
}

// FindCandidates returns labs meeting a minimum capacity, optionally
// excluding permanent labs. Software filtering happens in the service since
// it needs the superset check.
func (r *mongoLabRepository) FindCandidates(ctx context.Context, minCapacity int, includePermanent bool) ([]*model.Lab, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if minCapacity > 0 {
		filter["capacity"] = bson.M{"$gte": minCapacity}
	}
	if !includePermanent {
		filter["permanent"] = false
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate labs: %w", err)
	}
	defer cursor.Close(ctx)

	var labs []*model.Lab
	if err = cursor.All(ctx, &labs); err != nil {
		return nil, fmt.Errorf("failed to decode labs: %w", err)
	}

	return labs, nil
}

func (r *mongoLabRepository) Update(ctx context.Context, id string, lab *model.Lab) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", labserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":        lab.Name,
			"capacity":    lab.Capacity,
			"description": lab.Description,
			"permanent":   lab.Permanent,
			"software":    lab.Software,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, labserrors.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update lab: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, labserrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoLabRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", labserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete lab: %w", err)
	}

	if result.DeletedCount == 0 {
		return labserrors.ErrNotFound
	}

	return nil
}

func (r *mongoLabRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count labs: %w", err)
	}

	return count, nil
}

func (r *mongoLabRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
