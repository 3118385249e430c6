package mongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pdftoolpro/tracking-api/internal/core/domain"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultWatchBackoff = 15 * time.Second
)

// Config captures the settings required to establish a MongoDB connection.
type Config struct {
	URI                    string
	Database               string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
	// OperationTimeout bounds every repository call.
	OperationTimeout time.Duration
}

// Store is the process-wide MongoDB handle shared by all repositories.
//
// A Store is usable even when MongoDB could not be reached: the service keeps
// running and repositories report the failure per request instead of the
// process refusing to start.
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	opTimeout time.Duration
	log       zerolog.Logger

	mu      sync.RWMutex
	indexed bool

	// indexing serialises index creation between requests and Watch.
	indexing sync.Mutex
}

// Open builds the client and verifies connectivity with a ping. It only
// returns an error when ctx is already done; an unreachable server yields a
// degraded Store.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Store{opTimeout: cfg.OperationTimeout, log: log}
	if s.opTimeout <= 0 {
		s.opTimeout = defaultTimeout
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(connectTimeout)
	if cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}
	if cfg.SocketTimeout > 0 {
		opts.SetSocketTimeout(cfg.SocketTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Error().Err(err).Msg("mongo client could not be created, running without MongoDB")
		return s, nil
	}
	s.client = client
	s.db = client.Database(cfg.Database)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := s.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("mongo unreachable, running in degraded mode")
		return s, nil
	}

	log.Info().Str("database", cfg.Database).Msg("mongo connected")
	s.ensureIndexes(ctx)
	return s, nil
}

// Watch pings MongoDB until the indexes could be created or ctx is done.
// It is a no-op for a Store that is already indexed or has no client.
func (s *Store) Watch(ctx context.Context, every time.Duration) {
	if s.client == nil || s.isIndexed() {
		return
	}
	if every <= 0 {
		every = defaultWatchBackoff
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
			err := s.Ping(pingCtx)
			cancel()
			if err != nil {
				s.log.Debug().Err(err).Msg("mongo still unreachable")
				continue
			}
			s.log.Info().Msg("mongo reachable again")
			if s.ensureIndexes(ctx) {
				return
			}
		}
	}
}

// Ping reports whether the server answers.
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return domain.ErrStoreUnavailable
	}
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

// Close disconnects the client, if any.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// collection hands out a collection only once the indexes exist, so no
// write can land before the unique constraints it relies on.
func (s *Store) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	if s.db == nil {
		return nil, domain.ErrStoreUnavailable
	}
	if !s.isIndexed() && !s.ensureIndexes(ctx) {
		return nil, fmt.Errorf("%w: indexes not in place", domain.ErrStoreUnavailable)
	}
	return s.db.Collection(name), nil
}

// withTimeout derives the per-operation context used by repositories.
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *Store) isIndexed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexed
}

func (s *Store) ensureIndexes(ctx context.Context) bool {
	s.indexing.Lock()
	defer s.indexing.Unlock()
	if s.isIndexed() {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := ensureIndexes(ctx, s.db); err != nil {
		s.log.Error().Err(err).Msg("failed to create mongo indexes")
		return false
	}

	s.mu.Lock()
	s.indexed = true
	s.mu.Unlock()
	return true
}
