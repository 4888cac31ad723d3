package dex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fivetwenty-io/dex/internal/constants"
)

// NATSKVConfig configures the JetStream key-value backend.
type NATSKVConfig struct {
	// URL of the NATS server (e.g., "nats://127.0.0.1:4222").
	URL string
	// Bucket name; created when missing.
	Bucket string
	// Timeout bounds connect and per-call latency.
	Timeout time.Duration
	// Conn reuses an existing connection instead of dialing URL. The caller
	// keeps ownership and Close leaves it open.
	Conn *nats.Conn
}

// NATSKVStorage stores values in a JetStream key-value bucket, so several
// machines can share one favorites set.
type NATSKVStorage struct {
	conn    *nats.Conn
	kv      jetstream.KeyValue
	timeout time.Duration
	ownConn bool
}

// NewNATSKVStorage connects and binds the bucket.
func NewNATSKVStorage(ctx context.Context, config *NATSKVConfig) (*NATSKVStorage, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = constants.ShortHTTPTimeout
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	conn := config.Conn
	ownConn := false

	if conn == nil {
		url := config.URL
		if url == "" {
			url = nats.DefaultURL
		}

		var err error

		conn, err = nats.Connect(url, nats.Name("dex"), nats.Timeout(timeout))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		ownConn = true
	}

	js, err := jetstream.New(conn)
	if err != nil {
		if ownConn {
			conn.Close()
		}

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	bindCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(bindCtx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "dex favorites",
		History:     1,
	})
	if err != nil {
		if ownConn {
			conn.Close()
		}

		return nil, fmt.Errorf("binding key-value bucket %s: %w", bucket, err)
	}

	return &NATSKVStorage{conn: conn, kv: kv, timeout: timeout, ownConn: ownConn}, nil
}

func (s *NATSKVStorage) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrStorageKeyNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("getting %s from NATS: %w", key, err)
	}

	return entry.Value(), nil
}

func (s *NATSKVStorage) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.kv.Put(ctx, key, value)
	if err != nil {
		return fmt.Errorf("putting %s to NATS: %w", key, err)
	}

	return nil
}

func (s *NATSKVStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s from NATS: %w", key, err)
	}

	return nil
}

// Close drains the connection when the storage dialed it.
func (s *NATSKVStorage) Close() error {
	if !s.ownConn {
		return nil
	}

	err := s.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}
