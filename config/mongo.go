package config

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var MongoClient *mongo.Client

// InitMongo connects when MONGO_URI is set. Returns (false, nil) when the
// variable is absent: remote note storage is optional and the hybrid layer
// falls back to local.
func InitMongo() (bool, error) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(20 * time.Second).
		SetConnectTimeout(15 * time.Second).
		SetMaxPoolSize(10).
		SetMinPoolSize(1)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return false, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return false, err
	}

	MongoClient = client
	return true, nil
}

// MongoDatabase returns the configured database handle, nil when Mongo is
// not connected.
func MongoDatabase() *mongo.Database {
	if MongoClient == nil {
		return nil
	}
	name := os.Getenv("MONGO_DB")
	if name == "" {
		name = "intake"
	}
	return MongoClient.Database(name)
}
