package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/fluidcad/pkg/interchange"
	"github.com/matzehuels/fluidcad/pkg/observability"
)

// MongoCollection is the collection devices are stored in.
const MongoCollection = "devices"

// MongoStore keeps one BSON document per device, keyed by name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to the mongodb:// URI and pings the server, retrying
// with backoff while it is unreachable.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	err = retry(ctx, connectAttempts, connectDelay, func() error {
		if err := client.Ping(ctx, nil); err != nil {
			return &retryableError{err}
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewMongoStore(client, database), nil
}

// NewMongoStore wraps an existing client. Close disconnects the client.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(MongoCollection),
	}
}

// Save upserts the document stored under name.
func (s *MongoStore) Save(ctx context.Context, name string, doc interchange.DeviceV1) error {
	if err := validName(name); err != nil {
		return err
	}
	rec := record{Name: name, UpdatedAt: time.Now().UTC(), Document: doc}
	data, err := bson.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode device %s: %w", name, err)
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, bson.Raw(data), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save device %s: %w", name, err)
	}
	observability.Store().OnStoreSave(ctx, BackendMongo, len(data))
	return nil
}

// Load returns the document stored under name.
func (s *MongoStore) Load(ctx context.Context, name string) (interchange.DeviceV1, error) {
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return interchange.DeviceV1{}, loaded(ctx, BackendMongo, notFound(name))
	}
	if err != nil {
		return interchange.DeviceV1{}, fmt.Errorf("load device %s: %w", name, err)
	}
	normalizeDocument(&rec.Document)
	return rec.Document, loaded(ctx, BackendMongo, nil)
}

// List returns all entries ordered by name.
func (s *MongoStore) List(ctx context.Context) ([]Entry, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "updated_at": 1}).
		SetSort(bson.M{"_id": 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	var recs []struct {
		Name      string    `bson:"_id"`
		UpdatedAt time.Time `bson:"updated_at"`
	}
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	out := make([]Entry, 0, len(recs))
	for _, r := range recs {
		out = append(out, Entry{Name: r.Name, UpdatedAt: r.UpdatedAt.UTC()})
	}
	return out, nil
}

// Delete removes the document stored under name.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("delete device %s: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return notFound(name)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// normalizeDocument rewrites BSON container types in parameter values to
// the plain slices and maps the JSON and msgpack decoders produce.
func normalizeDocument(doc *interchange.DeviceV1) {
	for i := range doc.Layers {
		for j := range doc.Layers[i].Features {
			normalizeParams(doc.Layers[i].Features[j].Params)
		}
	}
	for i := range doc.Connections {
		normalizeParams(doc.Connections[i].Params)
	}
}

func normalizeParams(p map[string]any) {
	for k, v := range p {
		p[k] = plainValue(v)
	}
}

func plainValue(v any) any {
	switch t := v.(type) {
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	}
	return v
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
