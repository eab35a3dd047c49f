package session

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"travelease/internal/external"
	"travelease/internal/logger"
	"travelease/internal/models"

	"github.com/redis/go-redis/v9"
)

// Provider supplies the ambient session state the workflow depends on: the
// bearer credential (carried per request) and the authenticated user's
// profile. Profiles are cached in Redis so repeated workflow opens don't hit
// the backend every time. The cache is optional; without it every lookup
// falls through to the booking service.
type Provider struct {
	backend    *external.BookingClient
	client     *redis.Client
	profileTTL time.Duration
}

type Config struct {
	RedisAddr     string
	RedisPassword string
	ProfileTTL    time.Duration
}

func NewProvider(cfg Config, backend *external.BookingClient) (*Provider, error) {
	p := &Provider{
		backend:    backend,
		profileTTL: cfg.ProfileTTL,
	}
	if p.profileTTL == 0 {
		p.profileTTL = 5 * time.Minute
	}

	if cfg.RedisAddr == "" {
		return p, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	p.client = rdb
	return p, nil
}

// Profile returns the profile for the given credential, or (nil, nil) when
// no credential is present. Callers treat failures as best-effort.
func (p *Provider) Profile(ctx context.Context, token string) (*models.Profile, error) {
	if token == "" {
		return nil, nil
	}

	cacheKey := profileKey(token)

	if p.client != nil {
		raw, err := p.client.Get(ctx, cacheKey).Result()
		if err == nil {
			var profile models.Profile
			if err := json.Unmarshal([]byte(raw), &profile); err == nil {
				return &profile, nil
			}
		} else if err != redis.Nil {
			logger.Get().Warn("Profile cache lookup failed", "error", err)
		}
	}

	profile, err := p.backend.GetProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	if p.client != nil {
		if raw, err := json.Marshal(profile); err == nil {
			if err := p.client.Set(ctx, cacheKey, raw, p.profileTTL).Err(); err != nil {
				logger.Get().Warn("Profile cache write failed", "error", err)
			}
		}
	}

	return profile, nil
}

func (p *Provider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// profileKey derives the cache key from a hash of the credential so raw
// tokens never land in the cache keyspace.
func profileKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("session:profile:%x", sum[:16])
}
