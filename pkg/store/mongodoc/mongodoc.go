// Package mongodoc backs the OpeningStore with a MongoDB collection, for
// deployments that mirror the host document's opening inventory into a
// database instead of running against an in-memory snapshot.
//
// All mutations of one run go through a causally consistent session and
// [mongo.Session.WithTransaction], matching the engine's all-or-nothing
// transaction contract. Failing to open the session is the one fatal
// error of a run.
package mongodoc

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	sleeverrors "github.com/openmep/sleever/pkg/errors"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/store"
)

// DefaultCollection is the collection openings are stored in unless
// overridden.
const DefaultCollection = "openings"

// Store implements store.OpeningStore on a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New creates a store over the given database and collection. An empty
// collection name falls back to DefaultCollection.
func New(client *mongo.Client, database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

// FindExisting implements store.OpeningStore.
func (s *Store) FindExisting(ctx context.Context, f store.OpeningFilter) ([]model.Opening, error) {
	cur, err := s.coll.Find(ctx, filterDoc(f))
	if err != nil {
		return nil, sleeverrors.Wrap(err, sleeverrors.ErrCodeInternal, "query openings")
	}
	var out []model.Opening
	if err := cur.All(ctx, &out); err != nil {
		return nil, sleeverrors.Wrap(err, sleeverrors.ErrCodeInternal, "decode openings")
	}
	return out, nil
}

// Create implements store.OpeningStore, assigning a fresh UUID.
func (s *Store) Create(ctx context.Context, o model.Opening) (model.Opening, error) {
	o.ID = uuid.NewString()
	if _, err := s.coll.InsertOne(ctx, o); err != nil {
		return model.Opening{}, sleeverrors.Wrap(err, sleeverrors.ErrCodeCreationFailure,
			"insert opening")
	}
	return o, nil
}

// Delete implements store.OpeningStore.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return sleeverrors.Wrap(err, sleeverrors.ErrCodeInternal, "delete opening %s", id)
	}
	if res.DeletedCount == 0 {
		return sleeverrors.New(sleeverrors.ErrCodeNotFound, "opening %s not found", id)
	}
	return nil
}

// RunInTransaction implements store.OpeningStore.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return sleeverrors.Wrap(err, sleeverrors.ErrCodeTransactionFailed, "start session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// filterDoc translates an OpeningFilter to a Mongo query document.
func filterDoc(f store.OpeningFilter) bson.M {
	q := bson.M{}
	if len(f.Classes) > 0 {
		q["class"] = bson.M{"$in": f.Classes}
	}
	if len(f.Categories) > 0 {
		q["category"] = bson.M{"$in": f.Categories}
	}
	if len(f.HostKinds) > 0 {
		q["host_kind"] = bson.M{"$in": f.HostKinds}
	}
	return q
}
