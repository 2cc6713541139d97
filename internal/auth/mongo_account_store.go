package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAccountStore keeps accounts in one collection shared by all accounts;
// everything else in the database is per-account.
type MongoAccountStore struct {
	coll *mongo.Collection
}

// NewMongoAccountStore binds the accounts collection on an already-connected
// client and ensures the unique name index.
func NewMongoAccountStore(ctx context.Context, cli *mongo.Client, db string) *MongoAccountStore {
	c := cli.Database(db).Collection("accounts")
	_, _ = c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return &MongoAccountStore{coll: c}
}

func (s *MongoAccountStore) Find(ctx context.Context, name string) (*Account, error) {
	var a Account
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *MongoAccountStore) Create(ctx context.Context, a *Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.coll.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAccountExists
	}
	return err
}

func (s *MongoAccountStore) UpdatePassword(ctx context.Context, name, newHash string) error {
	res, err := s.coll.UpdateOne(
		ctx,
		bson.M{"name": name},
		bson.M{"$set": bson.M{"pass_hash": newHash}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}
