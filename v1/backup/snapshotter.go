package backup

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

const contentType = "application/gzip"

// Snapshotter uploads collection dumps to an S3-compatible bucket and
// restores them into any store that supports import.
type Snapshotter struct {
	cfg    *Config
	logger *zap.Logger

	mu  sync.Mutex
	api *minio.Client
}

// Option customizes a Snapshotter.
type Option func(*Snapshotter)

// WithLogger attaches a logger; defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(s *Snapshotter) { s.logger = l }
}

// New validates the configuration and returns a Snapshotter. No
// connection is made until the first operation.
func New(cfg *Config, opts ...Option) (*Snapshotter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Snapshotter{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// client returns the SDK client, connecting and ensuring the bucket
// exists on first use.
func (s *Snapshotter) client(ctx context.Context) (*minio.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api != nil {
		return s.api, nil
	}

	s.logger.Info("connecting to object storage",
		zap.String("endpoint", s.cfg.Endpoint),
		zap.String("bucket", s.cfg.Bucket))

	api, err := minio.New(s.cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.cfg.AccessKeyID, s.cfg.SecretAccessKey, ""),
		Secure: s.cfg.UseSSL,
	})
	if err != nil {
		return nil, vectordb.WrapBackendError("backup", "connect", err)
	}

	exists, err := api.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return nil, vectordb.WrapBackendError("backup", "bucket_exists", err)
	}
	if !exists {
		if err := api.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, vectordb.WrapBackendError("backup", "make_bucket", err)
		}
	}

	s.api = api
	return api, nil
}

// Close drops the cached client. The SDK holds no persistent
// connections, so there is nothing else to release.
func (s *Snapshotter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.api = nil
	return nil
}

// Snapshot exports the collection from the store and uploads it as a
// gzipped JSON object. It returns the object key of the new snapshot.
// Stores without export support yield ErrNotSupported.
func (s *Snapshotter) Snapshot(ctx context.Context, store vectordb.Store, collection string) (string, error) {
	dump, err := vectordb.ExportCollection(ctx, store, collection)
	if err != nil {
		return "", err
	}

	data, err := encodeDump(dump)
	if err != nil {
		return "", err
	}

	api, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	key := s.objectKey(collection, time.Now().UTC())
	_, err = api.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", vectordb.WrapBackendError("backup", "put_object", err)
	}

	s.logger.Info("snapshot uploaded",
		zap.String("collection", collection),
		zap.String("key", key),
		zap.Int("documents", len(dump.Documents)),
		zap.Int("bytes", len(data)))

	return key, nil
}

// Restore downloads the snapshot at key and imports it into the store.
// The import replaces any existing collection of the same name.
func (s *Snapshotter) Restore(ctx context.Context, store vectordb.Store, key string) error {
	api, err := s.client(ctx)
	if err != nil {
		return err
	}

	obj, err := api.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return vectordb.WrapBackendError("backup", "get_object", err)
	}
	defer obj.Close()

	dump, err := decodeDump(obj)
	if err != nil {
		return err
	}

	if err := vectordb.ImportCollection(ctx, store, dump); err != nil {
		return err
	}

	s.logger.Info("snapshot restored",
		zap.String("collection", dump.Name),
		zap.String("key", key),
		zap.Int("documents", len(dump.Documents)))

	return nil
}

// List returns the object keys of all snapshots of a collection, newest
// first. An empty collection lists every snapshot under the prefix.
func (s *Snapshotter) List(ctx context.Context, collection string) ([]string, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	prefix := s.cfg.Prefix
	if collection != "" {
		prefix = path.Join(prefix, collection) + "/"
	}

	var keys []string
	for obj := range api.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, vectordb.WrapBackendError("backup", "list_objects", obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	// Keys embed an RFC3339-style timestamp, so lexical order is
	// chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// Delete removes a snapshot object.
func (s *Snapshotter) Delete(ctx context.Context, key string) error {
	api, err := s.client(ctx)
	if err != nil {
		return err
	}
	if err := api.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return vectordb.WrapBackendError("backup", "remove_object", err)
	}
	return nil
}

// objectKey builds <prefix>/<collection>/<timestamp>.json.gz.
func (s *Snapshotter) objectKey(collection string, now time.Time) string {
	return path.Join(s.cfg.Prefix, collection, now.Format("20060102T150405Z")+".json.gz")
}

func encodeDump(dump *vectordb.CollectionDump) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(dump); err != nil {
		return nil, fmt.Errorf("backup: encode dump: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("backup: compress dump: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeDump(r io.Reader) (*vectordb.CollectionDump, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("backup: decompress dump: %w", err)
	}
	defer gz.Close()

	var dump vectordb.CollectionDump
	if err := json.NewDecoder(gz).Decode(&dump); err != nil {
		return nil, fmt.Errorf("backup: decode dump: %w", err)
	}
	if strings.TrimSpace(dump.Name) == "" {
		return nil, fmt.Errorf("backup: dump has no collection name")
	}
	return &dump, nil
}
