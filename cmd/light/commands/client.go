package commands

import (
	"context"
	"errors"
	"fmt"

	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/lightclient/config"
	"github.com/tendermint/lightclient/libs/log"
	"github.com/tendermint/lightclient/light"
	"github.com/tendermint/lightclient/light/store"
	dbs "github.com/tendermint/lightclient/light/store/db"
)

const dbName = "light-client-db"

// openStore opens the light block store kept in the configured database.
// The caller closes the returned DB.
func openStore(conf *config.Config) (store.Store, dbm.DB, error) {
	db, err := dbm.NewDB(dbName, dbm.BackendType(conf.DBBackend), conf.DBDir())
	if err != nil {
		return nil, nil, fmt.Errorf("can't create a db: %w", err)
	}
	return dbs.New(db), db, nil
}

func newClient(conf *config.Config, logger log.Logger, metrics *light.Metrics) (*light.Client, error) {
	opts, err := conf.Options()
	if err != nil {
		return nil, err
	}
	return light.NewHTTPClient(conf.ChainID, opts, conf.Primary,
		light.Logger(logger),
		light.WithMetrics(metrics),
		light.PruningSize(conf.PruningSize),
	)
}

// ensureTrusted bootstraps s from the configured checkpoint unless it
// already holds a trusted light block.
func ensureTrusted(ctx context.Context, conf *config.Config, c *light.Client, s store.Store, logger log.Logger) error {
	latest, err := s.LatestTrusted()
	switch {
	case err == nil:
		logger.Info("Continuing from trusted light block", "height", latest.Height)
		return nil
	case !errors.Is(err, store.ErrLightBlockNotFound):
		return err
	}

	if !conf.HasTrustedBlock() {
		return errors.New("the store holds no trusted light block; set trusted-height and trusted-hash")
	}
	trustOptions, err := conf.TrustOptions()
	if err != nil {
		return err
	}
	_, err = c.Bootstrap(ctx, trustOptions, s)
	return err
}
