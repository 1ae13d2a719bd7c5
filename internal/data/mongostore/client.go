package mongostore

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	domainpages "github.com/Malamih/Rara-studio-api/internal/domain/pages"
)

const (
	defaultDatabase      = "rara"
	defaultSelectTimeout = 10 * time.Second
	appName              = "rara-studio-api"
)

// Options controls how the MongoDB client is initialised.
type Options struct {
	URI           string
	Database      string
	Logger        *logrus.Logger
	SelectTimeout time.Duration
	MaxPoolSize   uint64
}

// Open connects to MongoDB and returns the configured database handle.
// The driver connects lazily, so Open verifies reachability with a ping.
func Open(ctx context.Context, opts Options) (*mongo.Client, *mongo.Database, error) {
	uri := strings.TrimSpace(opts.URI)
	if uri == "" {
		return nil, nil, eris.New("mongodb uri is required")
	}

	if opts.SelectTimeout <= 0 {
		opts.SelectTimeout = defaultSelectTimeout
	}
	name := strings.TrimSpace(opts.Database)
	if name == "" {
		name = defaultDatabase
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetAppName(appName).
		SetServerSelectionTimeout(opts.SelectTimeout)
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, nil, eris.Wrap(err, "connecting to mongodb")
	}

	if opts.Logger != nil {
		opts.Logger.WithFields(logrus.Fields{
			"component": "mongo",
			"database":  name,
		}).Info("mongodb client created")
	}

	if err := Ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, domainpages.Unavailable(err, "connecting to mongodb database %s", name)
	}

	return client, client.Database(name), nil
}

// Ping verifies the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return eris.New("mongo client is nil")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return eris.Wrap(err, "pinging mongodb")
	}
	return nil
}

// Close disconnects the client.
func Close(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return eris.Wrap(err, "disconnecting mongodb")
	}
	return nil
}
