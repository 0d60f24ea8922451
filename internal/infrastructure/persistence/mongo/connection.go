// Package mongo implements the MongoDB persistence layer for the college records service.
// Students are stored with their marks embedded; subjects live in their own collection.
// Every analytical report is a single aggregation pipeline submitted to the server.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
	"github.com/Java42-DashaShamis/college-mongo/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrConnectionClosed indicates the client has been disconnected.
	ErrConnectionClosed = errors.New("mongo: connection is closed")

	// ErrIndexCreation indicates a failure while creating indexes.
	ErrIndexCreation = errors.New("mongo: index creation failed")
)

// ══════════════════════════════════════════════════════════════════════════════
// CONNECTION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds MongoDB connection configuration.
type Config struct {
	// URI is the connection string (e.g., "mongodb://localhost:27017").
	URI string

	// Database is the database name.
	Database string

	// StudentsCollection is the name of the students collection.
	StudentsCollection string

	// SubjectsCollection is the name of the subjects collection.
	SubjectsCollection string

	// ConnectTimeout bounds the initial handshake and every ping.
	ConnectTimeout time.Duration

	// MaxPoolSize is the maximum number of pooled connections.
	MaxPoolSize uint64

	// MinPoolSize is the minimum number of pooled connections.
	MinPoolSize uint64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		URI:                "mongodb://localhost:27017",
		Database:           "college",
		StudentsCollection: "students",
		SubjectsCollection: "subjects",
		ConnectTimeout:     10 * time.Second,
		MaxPoolSize:        50,
		MinPoolSize:        0,
	}
}

// Connection wraps a mongo client bound to one database.
type Connection struct {
	client *mongo.Client
	db     *mongo.Database
	config Config
	closed bool
	mu     sync.RWMutex
}

// NewConnection connects to MongoDB and verifies the connection with a ping.
// The ping is retried with backoff on network errors and timeouts, so the
// service survives a slow-starting server but fails fast on bad credentials.
func NewConnection(ctx context.Context, cfg Config, log *logger.Logger) (*Connection, error) {
	if log == nil {
		log = logger.Nop()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to create client: %w", err)
	}

	retrier := retry.Mongo(func(attempt int, err error, delay time.Duration) {
		log.Warn("mongo ping failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	})

	err = retrier.Do(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: failed to ping server: %w", err)
	}

	return &Connection{
		client: client,
		db:     client.Database(cfg.Database),
		config: cfg,
	}, nil
}

// Database returns the bound database.
func (c *Connection) Database() *mongo.Database {
	return c.db
}

// Students returns the students collection.
func (c *Connection) Students() *mongo.Collection {
	return c.db.Collection(c.config.StudentsCollection)
}

// Subjects returns the subjects collection.
func (c *Connection) Subjects() *mongo.Collection {
	return c.db.Collection(c.config.SubjectsCollection)
}

// Ping checks that the server is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on.
// subjectName is unique, which also backs the name lookup used to resolve subject ids.
func (c *Connection) EnsureIndexes(ctx context.Context) error {
	_, err := c.Subjects().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: fieldSubjectName, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("subjectName_unique"),
	})
	if err != nil {
		return fmt.Errorf("%w: subjects: %v", ErrIndexCreation, err)
	}

	_, err = c.Students().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: fieldName, Value: 1}}, Options: options.Index().SetName("name")},
		{Keys: bson.D{{Key: fieldMarkSubject, Value: 1}}, Options: options.Index().SetName("marks_subject")},
	})
	if err != nil {
		return fmt.Errorf("%w: students: %v", ErrIndexCreation, err)
	}

	return nil
}
