package database

import (
	"fmt"
	"tunescore/config"

	"github.com/valkey-io/valkey-go"
)

// Valkey database index organization. Each index is a logical namespace.
const (
	// GENERAL_CACHE_INDEX (DB 0) - miscellaneous caching
	GENERAL_CACHE_INDEX = iota

	// SESSION_CACHE_INDEX (DB 1) - session and auth temporary data
	SESSION_CACHE_INDEX

	// USER_CACHE_INDEX (DB 2) - user rows, rating lists, derived stats
	USER_CACHE_INDEX

	// EVENTS_CACHE_INDEX (DB 3) - pub/sub event bus
	EVENTS_CACHE_INDEX
)

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.Error("failed to initialize cache database: address or port is empty")
	}

	initAddress := []string{fmt.Sprintf("%s:%d", address, port)}

	var cacheDB Cache
	var err error

	cacheDB.General, err = valkey.NewClient(valkey.ClientOption{
		InitAddress: initAddress,
		SelectDB:    GENERAL_CACHE_INDEX,
	})
	if err != nil {
		return log.Err("failed to create general valkey client", err)
	}

	cacheDB.Session, err = valkey.NewClient(valkey.ClientOption{
		InitAddress: initAddress,
		SelectDB:    SESSION_CACHE_INDEX,
	})
	if err != nil {
		return log.Err("failed to create session valkey client", err)
	}

	cacheDB.User, err = valkey.NewClient(valkey.ClientOption{
		InitAddress: initAddress,
		SelectDB:    USER_CACHE_INDEX,
	})
	if err != nil {
		return log.Err("failed to create user valkey client", err)
	}

	cacheDB.Events, err = valkey.NewClient(valkey.ClientOption{
		InitAddress: initAddress,
		SelectDB:    EVENTS_CACHE_INDEX,
	})
	if err != nil {
		return log.Err("failed to create events valkey client", err)
	}

	s.Cache = cacheDB

	return nil
}
