// Package blobstore abstracts where accepted payloads land. The filesystem
// provider writes under a local output root; the minio/s3 provider targets
// an object store bucket.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config selects and parameterizes a provider.
type Config struct {
	Provider  string
	Root      string
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Client persists one payload per key and reports the resolved location
// (a filesystem path or bucket/key).
type Client interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, metadata map[string]string) (string, error)
	Close() error
}

// New creates a blob store client based on the given configuration.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "filesystem", "":
		return newFilesystemClient(cfg.Root)
	case "minio", "s3":
		return newMinioClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported blob store provider: %s", cfg.Provider)
	}
}

type filesystemClient struct {
	root string
}

func newFilesystemClient(root string) (Client, error) {
	if root == "" {
		return nil, fmt.Errorf("filesystem blob store requires an output root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	return &filesystemClient{root: root}, nil
}

func (f *filesystemClient) Put(_ context.Context, key string, reader io.Reader, _ int64, _ map[string]string) (string, error) {
	path := filepath.Join(f.root, filepath.Base(key))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(dst, reader); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func (f *filesystemClient) Close() error {
	return nil
}

type minioClient struct {
	client *minio.Client
	bucket string
}

func newMinioClient(cfg Config) (Client, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &minioClient{client: cl, bucket: cfg.Bucket}, nil
}

func (m *minioClient) Put(ctx context.Context, key string, reader io.Reader, size int64, metadata map[string]string) (string, error) {
	opts := minio.PutObjectOptions{UserMetadata: metadata}
	if _, err := m.client.PutObject(ctx, m.bucket, key, reader, size, opts); err != nil {
		return "", err
	}
	return m.bucket + "/" + key, nil
}

func (m *minioClient) Close() error {
	return nil
}
