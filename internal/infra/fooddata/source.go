package fooddata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Document is one raw JSON file from a source.
type Document struct {
	Name string
	Data []byte
}

// Source enumerates raw FDC documents. fn is called once per document in a
// stable order; returning an error stops the walk.
type Source interface {
	Walk(ctx context.Context, fn func(Document) error) error
}

// DirSource reads *.json files from a local directory.
type DirSource struct {
	dir string
}

// NewDirSource constructs a directory source.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Walk implements Source.
func (s *DirSource) Walk(ctx context.Context, fn func(Document) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read source dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := fn(Document{Name: name, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

// BucketSource reads *.json objects under a prefix from an S3 compatible
// bucket such as Cloudflare R2.
type BucketSource struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// BucketOptions configures a BucketSource.
type BucketOptions struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	Region          string
	UseSSL          bool
}

// NewBucketSource constructs the bucket source.
func NewBucketSource(opts BucketOptions, logger *slog.Logger) (*BucketSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}
	secure := opts.UseSSL
	if lower := strings.ToLower(strings.TrimSpace(opts.Endpoint)); strings.HasPrefix(lower, "http://") {
		secure = false
	} else if strings.HasPrefix(lower, "https://") {
		secure = true
	}
	client, err := minio.New(sanitizeEndpoint(opts.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure:       secure,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init bucket client: %w", err)
	}
	return &BucketSource{
		client: client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
		logger: logger.With("component", "fooddata.bucket"),
	}, nil
}

// Walk implements Source.
func (s *BucketSource) Walk(ctx context.Context, fn func(Document) error) error {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("list objects: %w", obj.Err)
		}
		if strings.EqualFold(filepath.Ext(obj.Key), ".json") {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)
	s.logger.Info("bucket objects listed", "bucket", s.bucket, "prefix", s.prefix, "count", len(keys))

	for _, key := range keys {
		data, err := s.read(ctx, key)
		if err != nil {
			return err
		}
		if err := fn(Document{Name: key, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func (s *BucketSource) read(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
