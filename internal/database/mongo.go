package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/doctorai-app/backend/internal/config"
)

const connectTimeout = 10 * time.Second

// Collection names, shared with earlier deployments of this service.
const (
	recordsCollection = "medical_records"
	chatsCollection   = "chat_conversations"
)

// Mongo holds the document store client and the two collections this
// service writes to.
type Mongo struct {
	client  *mongo.Client
	Records *mongo.Collection
	Chats   *mongo.Collection
}

// Connect opens and pings a MongoDB connection.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	return &Mongo{
		client:  client,
		Records: db.Collection(recordsCollection),
		Chats:   db.Collection(chatsCollection),
	}, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
