package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectAPI is the part of *minio.Client the publisher uses.
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Publisher struct {
	client objectAPI
	cfg    Config
	logger *slog.Logger
}

func NewMinIOClient(cfg Config) (*minio.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	}
	return minio.New(cfg.Endpoint, opts)
}

func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	client, err := NewMinIOClient(cfg)
	if err != nil {
		return nil, err
	}
	return newPublisher(client, cfg, logger), nil
}

func newPublisher(client objectAPI, cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{client: client, cfg: cfg, logger: logger}
}

// EnsureBucket creates the configured bucket when it does not exist.
func (p *Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", p.cfg.Bucket, err)
	}
	return nil
}

// Key is the object name of file within a run.
func (p *Publisher) Key(runID, file string) string {
	return path.Join(p.cfg.Prefix, runID, filepath.Base(file))
}

// Publish uploads files under <prefix>/<runID>/. Files that do not exist
// are skipped; the keys actually written are returned.
func (p *Publisher) Publish(ctx context.Context, runID string, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key, err := p.put(ctx, runID, file)
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Debug("skipping missing file", "file", file)
			continue
		}
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (p *Publisher) put(ctx context.Context, runID, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	key := p.Key(runID, file)
	opts := minio.PutObjectOptions{ContentType: contentType(file)}
	if _, err := p.client.PutObject(ctx, p.cfg.Bucket, key, f, info.Size(), opts); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	p.logger.Info("uploaded", "bucket", p.cfg.Bucket, "key", key, "bytes", info.Size())
	return key, nil
}

func contentType(file string) string {
	if filepath.Ext(file) == ".json" {
		return "application/json"
	}
	if filepath.Ext(file) == ".erd" {
		return "application/octet-stream"
	}
	return "text/plain"
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
