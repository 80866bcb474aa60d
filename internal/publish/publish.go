// Package publish mirrors the notebooks produced by a run to an
// S3-compatible bucket.
package publish

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/flarebyte/nbrun/internal/errors"
	"github.com/flarebyte/nbrun/internal/logger"
)

// Client is the subset of *minio.Client used by the publisher.
type Client interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Object is one uploaded artifact.
type Object struct {
	LocalPath string
	Key       string
	Size      int64
	ETag      string
}

// Publisher uploads run artifacts.
type Publisher struct {
	client Client
	cfg    Config
	log    *zap.SugaredLogger
}

// New validates cfg and connects a minio client.
func New(cfg Config, log *zap.SugaredLogger) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create object store client")
	}
	return NewWithClient(client, cfg, log), nil
}

// NewWithClient returns a publisher over an existing client.
func NewWithClient(client Client, cfg Config, log *zap.SugaredLogger) *Publisher {
	return &Publisher{client: client, cfg: cfg, log: logger.Component(log, "publish")}
}

// ObjectKey returns "<prefix>/<runID>/<file name>".
func ObjectKey(prefix, runID, localPath string) string {
	return path.Join(strings.Trim(prefix, "/"), runID, filepath.Base(localPath))
}

// Publish uploads files under the run prefix. It stops at the first failed
// upload and returns what was uploaded before it.
func (p *Publisher) Publish(ctx context.Context, runID string, files []string) ([]Object, error) {
	ok, err := p.client.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "check bucket %s", p.cfg.Bucket)
	}
	if !ok {
		return nil, errors.Newf("bucket %s does not exist", p.cfg.Bucket)
	}
	out := make([]Object, 0, len(files))
	for _, f := range files {
		key := ObjectKey(p.cfg.Prefix, runID, f)
		info, err := p.client.FPutObject(ctx, p.cfg.Bucket, key, f, minio.PutObjectOptions{ContentType: contentType(f)})
		if err != nil {
			return out, errors.Wrapf(err, "upload %s", f)
		}
		p.log.Infow("Uploaded artifact",
			logger.FieldRunID, runID,
			logger.FieldPath, f,
			"key", key,
			"size", info.Size,
		)
		out = append(out, Object{LocalPath: f, Key: key, Size: info.Size, ETag: info.ETag})
	}
	return out, nil
}

func contentType(f string) string {
	switch strings.ToLower(filepath.Ext(f)) {
	case ".ipynb", ".json":
		return "application/json"
	case ".html":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}
