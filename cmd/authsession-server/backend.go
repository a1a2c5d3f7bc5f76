package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/teamer-dev/authsession"
	"github.com/teamer-dev/authsession/principal"
	"github.com/teamer-dev/authsession/revocation"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

const connectTimeout = 10 * time.Second

// backends holds everything main has to close on the way out.
type backends struct {
	redis      redis.UniversalClient
	store      revocation.Store
	pruner     revocation.Pruner
	principals authsession.PrincipalStore
	closers    []func(context.Context) error
}

func (b *backends) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i](ctx)
	}
}

func closeFunc(c io.Closer) func(context.Context) error {
	return func(context.Context) error { return c.Close() }
}

func openBackends(ctx context.Context, cfg authsession.Config, srv serverConfig, logger zerolog.Logger) (*backends, error) {
	b := &backends{}

	if srv.Redis.Addr != "" {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{srv.Redis.Addr},
			Password: srv.Redis.Password,
			DB:       srv.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		b.redis = rdb
		b.closers = append(b.closers, closeFunc(rdb))
	}

	if err := b.openRevocation(ctx, cfg.Revocation); err != nil {
		b.Close(ctx)
		return nil, err
	}

	if err := b.openPrincipals(ctx, srv.Principals, logger); err != nil {
		b.Close(ctx)
		return nil, err
	}

	return b, nil
}

func (b *backends) openRevocation(ctx context.Context, cfg authsession.RevocationConfig) error {
	switch cfg.Backend {
	case authsession.BackendMemory:
		s := revocation.NewMemoryStore()
		b.store, b.pruner = s, s
		b.closers = append(b.closers, closeFunc(s))

	case authsession.BackendRedis:
		if b.redis == nil {
			return errors.New("revocation backend redis needs redis.addr")
		}
		b.store = revocation.NewRedisStore(b.redis, cfg.RedisPrefix)

	case authsession.BackendSQLite:
		s, err := revocation.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		b.store, b.pruner = s, s
		b.closers = append(b.closers, closeFunc(s))

	case authsession.BackendMongo:
		opts := options.Client().
			ApplyURI(cfg.MongoURI).
			SetConnectTimeout(connectTimeout).
			SetMonitor(otelmongo.NewMonitor())

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		b.closers = append(b.closers, client.Disconnect)

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			return fmt.Errorf("mongo ping: %w", err)
		}

		s := revocation.NewMongoStore(client.Database(cfg.MongoDatabase).Collection(revocation.MongoCollection))
		if err := s.EnsureIndexes(pingCtx); err != nil {
			return err
		}
		b.store, b.pruner = s, s

	default:
		return fmt.Errorf("unknown revocation backend %q", cfg.Backend)
	}
	return nil
}

func (b *backends) openPrincipals(ctx context.Context, cfg principalsConfig, logger zerolog.Logger) error {
	if cfg.SQLitePath != "" {
		s, err := principal.OpenSQLite(cfg.SQLitePath, nil)
		if err != nil {
			return err
		}
		b.closers = append(b.closers, closeFunc(s))
		for _, u := range cfg.Seed {
			if _, err := s.Add(ctx, u.Name, u.Email, u.Password); err != nil && !errors.Is(err, principal.ErrDuplicate) {
				return fmt.Errorf("seed principal %q: %w", u.Email, err)
			}
		}
		b.principals = s
		logger.Info().Str("path", cfg.SQLitePath).Int("seeded", len(cfg.Seed)).Msg("sqlite principal store ready")
		return nil
	}

	s, err := principal.NewMemoryStore(nil)
	if err != nil {
		return err
	}
	for _, u := range cfg.Seed {
		if _, err := s.Add(u.Name, u.Email, u.Password); err != nil {
			return fmt.Errorf("seed principal %q: %w", u.Email, err)
		}
	}
	if len(cfg.Seed) == 0 {
		logger.Warn().Msg("no principals configured, every login will fail")
	}
	b.principals = s
	return nil
}
