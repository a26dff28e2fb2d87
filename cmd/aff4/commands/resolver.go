// Package commands implements the aff4 CLI subcommands.
package commands

import (
	"database/sql"

	"github.com/forensix/aff4/config"
	"github.com/forensix/aff4/db"
	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/logger"
	"github.com/forensix/aff4/store"
	"github.com/forensix/aff4/volume"
)

// openResolver builds a resolver from configuration: the selected
// triple store backend with the configured suppressed types applied.
// The returned cleanup closes the resolver (flushing every cached
// object) and any backing database.
func openResolver(cfg *config.Config) (store.DataStore, func() error, error) {
	var (
		resolver store.DataStore
		database *sql.DB
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		resolver = store.NewMemoryDataStore(logger.Logger)

	case config.BackendSQLite:
		var err error
		database, err = db.Open(cfg.Store.Path, logger.Logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(database, logger.Logger); err != nil {
			database.Close()
			return nil, nil, err
		}
		resolver = store.NewSQLiteDataStore(database, logger.Logger)

	default:
		return nil, nil, errors.Newf("unknown store backend %q", cfg.Store.Backend)
	}

	for _, name := range cfg.Store.SuppressedTypes {
		resolver.SuppressType(name)
	}

	cleanup := func() error {
		err := resolver.Close()
		if database != nil {
			err = errors.CombineErrors(err, database.Close())
		}
		return err
	}
	return resolver, cleanup, nil
}

// preloadVolumes loads the metadata of existing volumes cumulatively
// into the resolver before a command runs.
func preloadVolumes(resolver store.DataStore, paths []string) error {
	for _, path := range paths {
		if _, err := volume.NewDirectoryVolume(resolver, path); err != nil {
			return errors.Wrapf(err, "pre-load volume %s", path)
		}
	}
	return nil
}
