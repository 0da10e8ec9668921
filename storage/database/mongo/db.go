// Package mongodb implements the repositories on top of a MongoDB database.
package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hsuniversity/classroom/core"
)

// collection names
const (
	Users         = "users"
	Classes       = "classes"
	ClassStudents = "class_students"
	Attendance    = "attendance"
	Grades        = "grades"
)

type DB struct {
	client       *mongo.Client
	database     *mongo.Database
	transactions bool
}

// Open connects to the configured database and pings its primary.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	cctx, cancel := context.WithTimeout(ctx, conf.Mongo.ConnectTimeout)
	defer cancel()

	cli, err := mongo.Connect(cctx, options.Client().ApplyURI(conf.Mongo.URI).SetAppName(conf.AppName))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	if err = cli.Ping(cctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging mongo")
	}
	return &DB{
		client:       cli,
		database:     cli.Database(conf.Mongo.Database),
		transactions: conf.Mongo.Transactions,
	}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.database.Collection(name)
}

// EnsureIndexes creates the indexes the repositories rely on. It is idempotent.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "google_sub", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		Classes: {
			{Keys: bson.D{{Key: "lecturer_id", Value: 1}}},
			{Keys: bson.D{{Key: "students", Value: 1}}},
		},
		ClassStudents: {
			{Keys: bson.D{{Key: "class_id", Value: 1}, {Key: "added_at", Value: 1}}},
			{Keys: bson.D{{Key: "student_id", Value: 1}}},
		},
		Attendance: {
			{Keys: bson.D{{Key: "class_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		Grades: {
			{Keys: bson.D{{Key: "class_id", Value: 1}, {Key: "student_id", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// withTransaction runs fn in a multi-document transaction when the deployment supports them
// (replica sets), and sequentially otherwise.
func (db *DB) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !db.transactions {
		return fn(ctx)
	}
	session, err := db.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// findAll decodes every document matched by filter into results.
func findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, results interface{}, opts ...*options.FindOptions) error {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return cur.All(ctx, results)
}
