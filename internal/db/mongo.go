package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

const (
	serverSelectionTimeout = 5 * time.Second
	primaryPingAttempts    = 3
)

// ConnectDB connects to cfg.MongoURI and waits until a primary answers.
// Writes use majority concern so a conditional status update is durable
// before the next reader can observe it.
func ConnectDB(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	dbName, err := databaseName(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		return nil, nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName(cfg.AppName).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetWriteConcern(writeconcern.Majority()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := waitForPrimary(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	utils.Logger.WithField("database", dbName).Info("Connected to MongoDB")
	return client, client.Database(dbName), nil
}

// databaseName prefers the configured name and falls back to the database
// named in the connection string.
func databaseName(uri, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("invalid MONGO_URI: %w", err)
	}
	if cs.Database == "" {
		return "", fmt.Errorf("no database name: set MONGO_DB_NAME or name one in MONGO_URI")
	}
	return cs.Database, nil
}

// waitForPrimary pings until a primary is selected, retrying while server
// selection times out during a replica set election.
func waitForPrimary(ctx context.Context, client *mongo.Client) error {
	err := WithRetries(func() error {
		return client.Ping(ctx, readpref.Primary())
	}, primaryPingAttempts-1, func(err error) bool {
		return ctx.Err() == nil && mongo.IsTimeout(err)
	})
	if err != nil {
		return fmt.Errorf("failed to ping MongoDB primary: %w", err)
	}
	return nil
}

// DisconnectDB closes the MongoDB client connection.
func DisconnectDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	utils.Logger.Info("MongoDB connection closed")
	return nil
}
