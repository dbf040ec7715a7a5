package ratelimit

import (
	"context"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/utilibill/internal/config"
	"go.uber.org/zap"
)

const loginKeyPrefix = "utilibill:login:"

// LoginLimiter counts POST /auth/login attempts per client address in fixed
// windows. Without Redis it allows everything.
type LoginLimiter struct {
	client   *redis.Client
	attempts int
	window   time.Duration
	log      *zap.Logger
}

func NewLoginLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) *LoginLimiter {
	limiter := &LoginLimiter{
		attempts: cfg.RateLimit.LoginAttempts,
		window:   cfg.RateLimit.LoginWindow,
		log:      log.Named("ratelimit.login"),
	}
	if limiter.attempts > 0 && limiter.window > 0 {
		limiter.client = client
	}
	return limiter
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.client != nil
}

// Allow fails open when Redis errors so an outage never locks users out.
func (l *LoginLimiter) Allow(ctx context.Context, clientAddr string) (bool, time.Duration) {
	if !l.Enabled() {
		return true, 0
	}
	key := loginKeyPrefix + strings.TrimSpace(clientAddr)

	var count *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		l.log.Warn("login rate limit check failed", zap.Error(err))
		return true, 0
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		// first attempt of a window, or a key that lost its expiry
		if err := l.client.PExpire(ctx, key, l.window).Err(); err != nil {
			l.log.Warn("login rate limit expiry failed", zap.Error(err))
		}
		remaining = l.window
	}
	return decide(count.Val(), l.attempts, remaining)
}

// decide allows the first attempts of a window and tells the rest how long
// until the window resets.
func decide(count int64, attempts int, remaining time.Duration) (bool, time.Duration) {
	if count <= int64(attempts) {
		return true, 0
	}
	if remaining < time.Second {
		remaining = time.Second
	}
	return false, remaining.Round(time.Second)
}
