package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/r0d10nq/dimon/internal/logger"
)

// Client ships memory database snapshots to object storage so a lost disk
// does not mean a lost relationship history.
type Client struct {
	mc     *minio.Client
	bucket string
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

func NewClient(cfg Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// Init creates the backup bucket if it doesn't exist.
func (c *Client) Init(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}

	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", c.bucket, err)
		}
		logger.Info("bucket created", "bucket", c.bucket)
	}

	return nil
}

// BackupDatabase uploads a timestamped copy of the memory database file.
func (c *Client) BackupDatabase(ctx context.Context, dbPath string) error {
	f, err := os.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", dbPath, err)
	}

	name := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102-150405"), filepath.Base(dbPath))

	_, err = c.mc.PutObject(ctx, c.bucket, name, f, info.Size(), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", c.bucket, name, err)
	}

	logger.Info("database backed up", "bucket", c.bucket, "object", name, "bytes", info.Size())
	return nil
}

// PruneBackups keeps the most recent keep objects and deletes the rest.
func (c *Client) PruneBackups(ctx context.Context, keep int) error {
	var names []string
	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("list %s: %w", c.bucket, obj.Err)
		}
		names = append(names, obj.Key)
	}

	if len(names) <= keep {
		return nil
	}

	// names sort chronologically thanks to the timestamp prefix
	sort.Strings(names)
	for _, name := range names[:len(names)-keep] {
		if err := c.mc.RemoveObject(ctx, c.bucket, name, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("delete %s/%s: %w", c.bucket, name, err)
		}
		logger.Debug("old backup pruned", "object", name)
	}

	return nil
}
