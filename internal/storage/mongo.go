package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements VersionStore and KeyringStore on three collections
// scoped to one account: versions, heads and a single keyring document.
type MongoStore struct {
	versions *mongo.Collection
	heads    *mongo.Collection
	keyring  *mongo.Collection
}

// Connect dials Mongo and verifies the connection quickly; the returned
// client is shared across all per-account stores.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(pctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	return cli, nil
}

// NewMongoStore binds the account's collections. prefix comes from the
// account name hash so collections never mix across accounts.
func NewMongoStore(ctx context.Context, cli *mongo.Client, dbName, prefix string) *MongoStore {
	db := cli.Database(dbName)
	s := &MongoStore{
		versions: db.Collection(prefix + "_versions"),
		heads:    db.Collection(prefix + "_heads"),
		keyring:  db.Collection(prefix + "_keyring"),
	}

	_, _ = s.versions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}, {Key: "hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = s.versions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "key", Value: 1}, {Key: "created_at", Value: -1}},
	})
	_, _ = s.heads.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return s
}

func (m *MongoStore) CreateVersion(ctx context.Context, v Version) (time.Time, error) {
	if v.Key == "" || v.Hash == "" {
		return time.Time{}, errors.New("storage: empty key or hash")
	}
	now := time.Now().UTC()

	// Upsert keyed by (key, hash): a retried push refreshes the envelope
	// and message; created_at and parent survive from the first write.
	_, err := m.versions.UpdateOne(
		ctx,
		bson.M{"key": v.Key, "hash": v.Hash},
		bson.M{
			"$set": bson.M{
				"envelope": v.Envelope,
				"message":  v.Message,
			},
			"$setOnInsert": bson.M{
				"parent":     v.Parent,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return time.Time{}, err
	}

	var doc struct {
		CreatedAt time.Time `bson:"created_at"`
	}
	if err := m.versions.FindOne(ctx, bson.M{"key": v.Key, "hash": v.Hash}).Decode(&doc); err != nil {
		return time.Time{}, err
	}
	return doc.CreatedAt, nil
}

func (m *MongoStore) SetCurrent(ctx context.Context, key, hash string) error {
	if key == "" || hash == "" {
		return errors.New("storage: empty key or hash")
	}
	_, err := m.heads.UpdateOne(
		ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"current_hash": hash, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) GetVersion(ctx context.Context, key, hash string) (Version, error) {
	var v Version
	err := m.versions.FindOne(ctx, bson.M{"key": key, "hash": hash}).Decode(&v)
	if err == mongo.ErrNoDocuments {
		return Version{}, ErrNotFound
	}
	return v, err
}

func (m *MongoStore) ListVersions(ctx context.Context, key string, limit int) ([]Version, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "hash", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cur, err := m.versions.Find(ctx, bson.M{"key": key}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Version
	for cur.Next(ctx) {
		var v Version
		if err := cur.Decode(&v); err == nil {
			out = append(out, v)
		}
	}
	return out, cur.Err()
}

func (m *MongoStore) ListHeads(ctx context.Context) ([]Head, error) {
	cur, err := m.heads.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var heads []Head
	for cur.Next(ctx) {
		var h Head
		if err := cur.Decode(&h); err == nil {
			heads = append(heads, h)
		}
	}
	_ = cur.Close(ctx)
	if err := cur.Err(); err != nil {
		return nil, err
	}

	newest, err := m.newestVersions(ctx)
	if err != nil {
		return nil, err
	}
	out, stale := healHeads(heads, newest)
	for _, h := range stale {
		// Pointer lagged behind history (crash between create and
		// set-current); re-issue it.
		if err := m.SetCurrent(ctx, h.Key, h.CurrentHash); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *MongoStore) newestVersions(ctx context.Context) (map[string]Version, error) {
	// One newest document per key, by creation time.
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$key"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
	}
	cur, err := m.versions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	newest := map[string]Version{}
	for cur.Next(ctx) {
		var row struct {
			Doc Version `bson:"doc"`
		}
		if err := cur.Decode(&row); err == nil {
			newest[row.Doc.Key] = row.Doc
		}
	}
	return newest, cur.Err()
}

func (m *MongoStore) PutKeyring(ctx context.Context, kr Keyring) error {
	kr.UpdatedAt = time.Now().UTC()
	_, err := m.keyring.UpdateByID(
		ctx,
		"keyring",
		bson.M{"$set": kr},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) GetKeyring(ctx context.Context) (Keyring, error) {
	var kr Keyring
	err := m.keyring.FindOne(ctx, bson.M{"_id": "keyring"}).Decode(&kr)
	if err == mongo.ErrNoDocuments {
		return Keyring{}, ErrNotFound
	}
	return kr, err
}
