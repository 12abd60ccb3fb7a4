package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/token-cost/pkg/discovery"
	"github.com/0xmhha/token-cost/pkg/logger"
)

// Bucket names.
var (
	bucketAliases = []byte("aliases") // project -> Alias
	bucketNames   = []byte("names")   // alias name -> project (index)
)

// store implements the Store interface using BoltDB.
type store struct {
	db     *bolt.DB
	logger logger.Logger
}

// Open opens or creates the alias database.
func Open(cfg Config, log logger.Logger) (Store, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	dbPath := discovery.ExpandHome(cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, createErr := tx.CreateBucketIfNotExists(bucketAliases); createErr != nil {
			return fmt.Errorf("failed to create aliases bucket: %w", createErr)
		}
		if _, createErr := tx.CreateBucketIfNotExists(bucketNames); createErr != nil {
			return fmt.Errorf("failed to create names bucket: %w", createErr)
		}
		return nil
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization error",
				"error", closeErr)
		}
		return nil, err
	}

	log.Debug("alias store opened", "db_path", dbPath)

	return &store{
		db:     db,
		logger: log,
	}, nil
}

// SetAlias implements Store.SetAlias.
func (s *store) SetAlias(project, name string) error {
	name = strings.TrimSpace(name)
	if project == "" {
		return ErrEmptyProject
	}
	if name == "" {
		return ErrEmptyName
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		aliases := tx.Bucket(bucketAliases)
		names := tx.Bucket(bucketNames)

		if owner := names.Get([]byte(name)); owner != nil && string(owner) != project {
			return fmt.Errorf("%w: %q is used by %s", ErrNameConflict, name, owner)
		}

		now := time.Now()
		alias := Alias{Project: project, Name: name, CreatedAt: now, UpdatedAt: now}

		if data := aliases.Get([]byte(project)); data != nil {
			var existing Alias
			if err := json.Unmarshal(data, &existing); err != nil {
				return fmt.Errorf("failed to unmarshal alias: %w", err)
			}
			alias.CreatedAt = existing.CreatedAt
			if existing.Name != name {
				if err := names.Delete([]byte(existing.Name)); err != nil {
					return fmt.Errorf("failed to delete old name index: %w", err)
				}
			}
		}

		data, err := json.Marshal(alias)
		if err != nil {
			return fmt.Errorf("failed to marshal alias: %w", err)
		}

		if err := aliases.Put([]byte(project), data); err != nil {
			return fmt.Errorf("failed to store alias: %w", err)
		}
		if err := names.Put([]byte(name), []byte(project)); err != nil {
			return fmt.Errorf("failed to store name index: %w", err)
		}

		s.logger.Info("alias set",
			"project", project,
			"name", name)

		return nil
	})
}

// Alias implements Store.Alias.
func (s *store) Alias(project string) (*Alias, error) {
	if project == "" {
		return nil, ErrEmptyProject
	}

	var alias *Alias

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAliases).Get([]byte(project))
		if data == nil {
			return ErrAliasNotFound
		}

		var a Alias
		if err := json.Unmarshal(data, &a); err != nil {
			return fmt.Errorf("failed to unmarshal alias: %w", err)
		}

		alias = &a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return alias, nil
}

// RemoveAlias implements Store.RemoveAlias.
func (s *store) RemoveAlias(project string) error {
	if project == "" {
		return ErrEmptyProject
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		aliases := tx.Bucket(bucketAliases)
		names := tx.Bucket(bucketNames)

		data := aliases.Get([]byte(project))
		if data == nil {
			return nil
		}

		var alias Alias
		if err := json.Unmarshal(data, &alias); err != nil {
			return fmt.Errorf("failed to unmarshal alias: %w", err)
		}

		if err := aliases.Delete([]byte(project)); err != nil {
			return fmt.Errorf("failed to delete alias: %w", err)
		}
		if err := names.Delete([]byte(alias.Name)); err != nil {
			return fmt.Errorf("failed to delete name index: %w", err)
		}

		s.logger.Info("alias removed",
			"project", project,
			"name", alias.Name)

		return nil
	})
}

// List implements Store.List.
func (s *store) List() ([]*Alias, error) {
	aliases := make([]*Alias, 0, 10)

	err := s.db.View(func(tx *bolt.Tx) error {
		// Keys iterate in byte order, which is project order.
		return tx.Bucket(bucketAliases).ForEach(func(k, v []byte) error {
			var alias Alias
			if unmarshalErr := json.Unmarshal(v, &alias); unmarshalErr != nil {
				s.logger.Warn("failed to unmarshal alias",
					"project", string(k),
					"error", unmarshalErr)
				return nil
			}

			aliases = append(aliases, &alias)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}

	return aliases, nil
}

// Close implements Store.Close.
func (s *store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.logger.Debug("alias store closed")
	return nil
}
