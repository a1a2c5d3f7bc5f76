// Command authsession-loadtest measures verify and refresh latency against
// a Redis revocation store.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"github.com/teamer-dev/authsession"
	"github.com/teamer-dev/authsession/password"
	"github.com/teamer-dev/authsession/principal"
	"github.com/teamer-dev/authsession/revocation"
	"golang.org/x/crypto/bcrypt"
)

type tokenState struct {
	mu    sync.Mutex
	token string
}

func main() {
	var (
		tokens      = pflag.Int("tokens", 10000, "number of tokens to seed")
		concurrency = pflag.Int("concurrency", 256, "number of concurrent workers")
		ops         = pflag.Int("ops", 200000, "operations per phase (verify, then refresh)")
		redisAddr   = pflag.String("redis-addr", os.Getenv("AUTHSESSION_REDIS_ADDR"), "redis address; miniredis when empty")
		prefix      = pflag.String("prefix", "as", "revocation key prefix")
	)
	pflag.Parse()

	if *tokens <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "tokens, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	client, cleanup, err := connect(*redisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	engine, err := newEngine(client, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx := context.Background()
	states := make([]tokenState, *tokens)
	fmt.Printf("seeding %d tokens...\n", *tokens)
	startSeed := time.Now()
	for i := range states {
		res, err := engine.Login(ctx, "load@example.com", "load-test-password")
		if err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		states[i].token = res.Token
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	verifyStats := runPhase(states, *ops, *concurrency, 7919, func(s *tokenState) error {
		s.mu.Lock()
		token := s.token
		s.mu.Unlock()
		_, err := engine.Verify(ctx, token)
		return err
	})

	refreshStats := runPhase(states, *ops, *concurrency, 6151, func(s *tokenState) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		res, err := engine.Refresh(ctx, s.token)
		if err != nil {
			return err
		}
		s.token = res.Token
		return nil
	})

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("reuse detected: %d, store errors: %d\n",
		snap.Counters[authsession.MetricRefreshReuseDetected],
		snap.Counters[authsession.MetricRevocationStoreError],
	)
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func newEngine(client redis.UniversalClient, prefix string) (*authsession.Engine, error) {
	principals, err := principal.NewMemoryStore(&password.Bcrypt{Cost: bcrypt.MinCost})
	if err != nil {
		return nil, err
	}
	if _, err := principals.Add("load", "load@example.com", "load-test-password"); err != nil {
		return nil, err
	}

	cfg := authsession.DefaultConfig()
	cfg.Token.SigningSecret = authsession.Secret(strings.Repeat("load-test-secret-", 4))
	cfg.Revocation.Backend = authsession.BackendRedis
	cfg.Revocation.RedisPrefix = prefix

	return authsession.New().
		WithConfig(cfg).
		WithRedis(client).
		WithRevocationStore(revocation.NewRedisStore(client, prefix)).
		WithPrincipalStore(principals).
		WithLatencyHistograms(true).
		Build()
}

func runPhase(states []tokenState, ops, concurrency int, seed int64, op func(*tokenState) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				if int(atomic.AddInt64(&cursor, 1)) > ops {
					return
				}
				state := &states[r.Intn(len(states))]

				t0 := time.Now()
				err := op(state)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}
