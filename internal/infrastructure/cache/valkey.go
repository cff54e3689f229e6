package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"NewsLabeler/internal/config"
)

// ErrMiss is returned by Store.Get for absent keys.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value store with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ValkeyStore keeps cached scores in Valkey.
type ValkeyStore struct {
	client valkey.Client
}

var _ Store = (*ValkeyStore)(nil)

// NewValkeyStore connects and pings the server.
func NewValkeyStore(ctx context.Context, cfg config.CacheConfig) (*ValkeyStore, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey: %w", err)
	}
	return &ValkeyStore{client: client}, nil
}

// Get returns ErrMiss when the key does not exist.
func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get: %w", err)
	}
	return raw, nil
}

// Set stores value; a ttl under one second stores without expiry.
func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var cmd valkey.Completed
	if secs := int64(ttl / time.Second); secs > 0 {
		cmd = s.client.B().Set().Key(key).Value(valkey.BinaryString(value)).ExSeconds(secs).Build()
	} else {
		cmd = s.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *ValkeyStore) Close() {
	s.client.Close()
}
