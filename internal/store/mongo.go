package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/db"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
)

// Mongo is a Repository backed by one MongoDB collection. Unique indexes are
// partial indexes over the status field so the check-and-insert is atomic
// in the server.
type Mongo[T any, P Document[T]] struct {
	coll    *mongo.Collection
	indexes []UniqueIndex
}

// NewMongo wraps the named collection. Call EnsureIndexes once at startup.
func NewMongo[T any, P Document[T]](database *mongo.Database, collection string, indexes ...UniqueIndex) *Mongo[T, P] {
	return &Mongo[T, P]{
		coll:    database.Collection(collection),
		indexes: indexes,
	}
}

// EnsureIndexes creates the repository's unique indexes if they do not exist.
// $in in partialFilterExpression requires MongoDB 6.0 or later.
func (m *Mongo[T, P]) EnsureIndexes(ctx context.Context) error {
	if len(m.indexes) == 0 {
		return nil
	}
	indexModels := make([]mongo.IndexModel, 0, len(m.indexes))
	for _, idx := range m.indexes {
		keys := bson.D{}
		for _, f := range idx.Fields {
			keys = append(keys, bson.E{Key: f, Value: 1})
		}
		opts := options.Index().SetName(idx.Name).SetUnique(true)
		if len(idx.StatusIn) > 0 {
			opts.SetPartialFilterExpression(bson.M{"status": bson.M{"$in": idx.StatusIn}})
		}
		indexModels = append(indexModels, mongo.IndexModel{Keys: keys, Options: opts})
	}
	if _, err := m.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", m.coll.Name(), err)
	}
	return nil
}

func (m *Mongo[T, P]) Get(ctx context.Context, id string) (*T, error) {
	out := new(T)
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding %s %s: %w", m.coll.Name(), id, err)
	}
	return out, nil
}

func (m *Mongo[T, P]) Find(ctx context.Context, filter Filter) ([]*T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := m.coll.Find(ctx, bson.M(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", m.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var out []*T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", m.coll.Name(), err)
	}
	return out, nil
}

func (m *Mongo[T, P]) Insert(ctx context.Context, doc *T) (string, error) {
	explicitID := P(doc).GetID() != ""
	operation := func() error {
		if !explicitID {
			P(doc).SetID("")
			P(doc).GenIDIfEmpty()
		}
		_, err := m.coll.InsertOne(ctx, doc)
		return err
	}

	var err error
	if explicitID {
		err = operation()
	} else {
		err = db.Try(operation)
	}
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return "", fmt.Errorf("failed to insert into %s: %w", m.coll.Name(), err)
	}
	return P(doc).GetID(), nil
}

func (m *Mongo[T, P]) ConditionalUpdate(ctx context.Context, id, expectedStatus string, patch Patch) error {
	return m.update(ctx, bson.M{"_id": id, "status": expectedStatus}, id, patch)
}

func (m *Mongo[T, P]) Update(ctx context.Context, id string, patch Patch) error {
	return m.update(ctx, bson.M{"_id": id}, id, patch)
}

func (m *Mongo[T, P]) update(ctx context.Context, filter bson.M, id string, patch Patch) error {
	result, err := m.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M(patch)})
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("failed to update %s %s: %w", m.coll.Name(), id, err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	// Distinguish a missing document from a status that moved on.
	count, err := m.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check %s %s: %w", m.coll.Name(), id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStatusMismatch
}

// MongoRepositories wires every repository to its collection.
type MongoRepositories struct {
	Repositories
	indexed []interface{ EnsureIndexes(context.Context) error }
}

// NewMongoRepositories builds the MongoDB-backed repositories.
func NewMongoRepositories(database *mongo.Database) *MongoRepositories {
	applications := NewMongo[models.RentalApplication](database, ApplicationsCollection, ApplicationPairIndex)
	visits := NewMongo[models.VisitRequest](database, VisitsCollection, VisitSlotIndex)
	contracts := NewMongo[models.LeaseContract](database, ContractsCollection, ContractApplicationIndex)

	return &MongoRepositories{
		Repositories: Repositories{
			Properties:   NewMongo[models.Property](database, PropertiesCollection),
			Profiles:     NewMongo[models.ApplicantProfile](database, ProfilesCollection),
			Applications: applications,
			Visits:       visits,
			Contracts:    contracts,
			Payments:     NewMongo[models.Payment](database, PaymentsCollection),
		},
		indexed: []interface{ EnsureIndexes(context.Context) error }{applications, visits, contracts},
	}
}

// EnsureIndexes creates the unique indexes for every collection that has them.
func (r *MongoRepositories) EnsureIndexes(ctx context.Context) error {
	for _, repo := range r.indexed {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
