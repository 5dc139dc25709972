package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/arrcenter/internal/logger"
)

// ConnectOptions defines the Redis settings backend connection and its retry policy.
type ConnectOptions struct {
	Addr           string        // Redis address (ex: "localhost:6379")
	User           string        // Optional username
	Password       string        // Optional password
	DB             int           // Redis DB number
	DialTimeout    time.Duration // Redis dial timeout
	ReadTimeout    time.Duration // Redis read timeout
	WriteTimeout   time.Duration // Redis write timeout
	PoolSize       int           // Redis connection pool size
	ConnectTimeout time.Duration // Total time allowed for connection attempts (ex: 30s)
	RetryInterval  time.Duration // Initial wait between retries, doubled after each failure
	MaxWait        time.Duration // Cap on the wait between retries (ex: 10s)
	PingTimeout    time.Duration // Timeout for each ping attempt (ex: 2s)
	WarnThreshold  int           // Attempts logged as warnings before escalating to errors
}

// pinger is the part of the client the retry loop needs.
type pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type retryPolicy struct {
	initialWait   time.Duration
	maxWait       time.Duration
	pingTimeout   time.Duration
	totalTimeout  time.Duration
	warnThreshold int
}

func (o ConnectOptions) validate() error {
	if o.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if o.ConnectTimeout <= 0 {
		return fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout)
	}
	if o.RetryInterval <= 0 {
		return fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval)
	}
	if o.MaxWait <= 0 {
		return fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait)
	}
	if o.PingTimeout <= 0 {
		return fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout)
	}
	if o.WarnThreshold < 0 {
		return fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold)
	}
	return nil
}

func (o ConnectOptions) policy() retryPolicy {
	return retryPolicy{
		initialWait:   o.RetryInterval,
		maxWait:       o.MaxWait,
		pingTimeout:   o.PingTimeout,
		totalTimeout:  o.ConnectTimeout,
		warnThreshold: o.WarnThreshold,
	}
}

// New creates a Redis client and blocks until it answers PING, retrying with
// exponential backoff until ConnectTimeout elapses or ctx is cancelled.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis options", logger.Error(err))
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if err := waitForPing(ctx, client, opts.Addr, opts.policy(), log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// waitForPing runs the retry loop against p.
func waitForPing(ctx context.Context, p pinger, addr string, policy retryPolicy, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, policy.totalTimeout)
	defer cancel()

	log.Info("connecting to redis",
		logger.String("addr", addr),
		logger.Duration("timeout", policy.totalTimeout))

	start := time.Now()
	wait := policy.initialWait

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, policy.pingTimeout)
		err := p.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected to redis after retry",
					logger.String("addr", addr),
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected to redis", logger.String("addr", addr))
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable, giving up",
				logger.String("addr", addr),
				logger.Int("attempts", attempt),
				logger.Duration("timeout", policy.totalTimeout),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				addr, attempt, policy.totalTimeout, err)

		case <-timer.C:
			fields := []interface{}{addr, attempt, wait, err}
			if attempt <= policy.warnThreshold {
				log.Warnf("redis connection to %s failed (attempt %d), retrying in %v: %v", fields...)
			} else {
				log.Errorf("redis still unavailable at %s (attempt %d), retrying in %v: %v", fields...)
			}
			wait *= 2
			if wait > policy.maxWait {
				wait = policy.maxWait
			}
		}
	}
}
