package mongostore

import (
	"context"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/quillarb/mongo-userstore/pkg/config"
	"github.com/quillarb/mongo-userstore/pkg/logger"
)

// DefaultCollection is the collection holding user documents when the
// configuration does not name one.
const DefaultCollection = "users"

func storageError(err error, message string) error {
	return oops.In("mongostore").Wrapf(err, "%s", message)
}

// Connect builds a Mongo client with the module's BSON options and verifies
// connectivity with a ping. The configuration must name a database.
func Connect(ctx context.Context, cfg config.MongoConfig, log *logger.Logger) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, oops.In("mongostore").Errorf("mongo uri cannot be empty")
	}
	if cfg.Database == "" {
		return nil, oops.In("mongostore").Errorf("no database name specified")
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetBSONOptions(&options.BSONOptions{
			// Decode datetimes in UTC and empty embedded lists as empty
			// slices so active/deleted state never depends on null-ness.
			UseLocalTimeZone: false,
			NilSliceAsEmpty:  true,
		})
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, storageError(err, "failed to create mongo client")
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storageError(err, "failed to ping mongo server")
	}

	log.Info("connected to mongodb",
		zap.String("database", cfg.Database),
	)

	return client, nil
}
