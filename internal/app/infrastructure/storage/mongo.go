package storage

import (
	"chatrelay/internal/app/domain/chat"
	"context"
	"fmt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"time"
)

type mongoMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Sender    string             `bson:"sender"`
	Content   string             `bson:"content"`
	Timestamp int64              `bson:"timestamp"`
}

type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongo connects and pings; a server that cannot be reached fails here
// rather than on the first message.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetAppName("chatrelay"))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (m *Mongo) Name() string {
	return "mongo"
}

func (m *Mongo) Insert(ctx context.Context, r chat.Record) error {
	doc := mongoMessage{
		Sender:    r.Sender,
		Content:   r.Content,
		Timestamp: r.Timestamp,
	}
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Latest returns documents that carry a sender, newest first.
// Documents written by other tools without a sender are skipped.
func (m *Mongo) Latest(ctx context.Context, limit int) ([]chat.Record, error) {
	filter := bson.D{{Key: "sender", Value: bson.D{{Key: "$exists", Value: true}}}}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoMessage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	out := make([]chat.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, chat.Record{Sender: d.Sender, Content: d.Content, Timestamp: d.Timestamp})
	}
	return out, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.client.Disconnect(ctx)
}
