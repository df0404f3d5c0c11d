package main

import (
	"context"
	"errors"
	"fmt"

	"notes-server/internal/config"
	"notes-server/internal/repository"
	"notes-server/internal/repository/sqlstore"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"
	"github.com/rs/zerolog"
)

type storage struct {
	users repository.UserRepository
	notes repository.NoteRepository
	ping  func(ctx context.Context) error
	close func() error
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (*storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", cfg.Driver).Str("path", cfg.SQLitePath).Msg("storage opened")
		return sqlStorage(store), nil

	case config.DriverMySQL:
		store, err := sqlstore.OpenMySQL(ctx, sqlstore.MySQLConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Name,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", cfg.Driver).Str("host", cfg.Host).Str("port", cfg.Port).Msg("storage opened")
		return sqlStorage(store), nil

	case config.DriverCouchDB:
		return openCouchDB(ctx, cfg, logger)

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func sqlStorage(store *sqlstore.Store) *storage {
	return &storage{
		users: store.Users(),
		notes: store.Notes(),
		ping:  store.Ping,
		close: store.Close,
	}
}

func openCouchDB(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (*storage, error) {
	client, err := kivik.New("couch", cfg.CouchDBURL)
	if err != nil {
		return nil, fmt.Errorf("connect to couchdb: %w", err)
	}

	exists, err := client.DBExists(ctx, cfg.Name)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("check database existence: %w", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, cfg.Name); err != nil {
			client.Close()
			return nil, fmt.Errorf("create database: %w", err)
		}
		logger.Info().Str("database", cfg.Name).Msg("created couchdb database")
	}

	if err := repository.EnsureIndexes(ctx, client, cfg.Name); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info().Str("driver", cfg.Driver).Str("database", cfg.Name).Msg("storage opened")
	return &storage{
		users: repository.NewUserRepository(client, cfg.Name),
		notes: repository.NewNoteRepository(client, cfg.Name),
		ping: func(ctx context.Context) error {
			up, err := client.Ping(ctx)
			if err != nil {
				return err
			}
			if !up {
				return errors.New("couchdb is not responding")
			}
			return nil
		},
		close: client.Close,
	}, nil
}
