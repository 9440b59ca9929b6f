package artifact

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// uploaderAPI is the part of s3manager.Uploader the publisher needs.
type uploaderAPI interface {
	UploadWithContext(aws.Context, *s3manager.UploadInput, ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Config locates the upload destination.
type S3Config struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint overrides the S3 endpoint, e.g. for MinIO. Setting it
	// switches to path-style addressing.
	Endpoint string
}

// S3Publisher uploads written bundles. Objects are keyed
// prefix/<ir hash>/<artifact name>, so identical compilations land on the
// same keys.
type S3Publisher struct {
	uploader uploaderAPI
	bucket   string
	prefix   string
	logger   *slog.Logger
}

// NewS3Publisher creates a publisher using the default AWS credential chain.
func NewS3Publisher(cfg S3Config, logger *slog.Logger) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 publisher: bucket is required")
	}
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 publisher: %w", err)
	}
	return newS3Publisher(s3manager.NewUploader(sess), cfg, logger), nil
}

func newS3Publisher(u uploaderAPI, cfg S3Config, logger *slog.Logger) *S3Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Publisher{uploader: u, bucket: cfg.Bucket, prefix: cfg.Prefix, logger: logger}
}

// Publish uploads every artifact listed in m, then the manifest itself,
// from dir. It returns the uploaded object locations in upload order.
func (p *S3Publisher) Publish(ctx context.Context, dir string, m *Manifest) ([]string, error) {
	names := make([]string, 0, len(m.Artifacts)+1)
	for _, e := range m.Artifacts {
		names = append(names, e.Path)
	}
	names = append(names, ManifestFile)

	locations := make([]string, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return locations, fmt.Errorf("failed to read %s for upload: %w", name, err)
		}
		key := p.Key(m.IRHash, name)
		out, err := p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType(name)),
		})
		if err != nil {
			return locations, fmt.Errorf("failed to upload %s: %w", name, err)
		}
		p.logger.Debug("uploaded artifact",
			slog.String("bucket", p.bucket),
			slog.String("key", key))
		locations = append(locations, out.Location)
	}
	return locations, nil
}

// Key returns the object key for artifact name of the compilation irHash.
func (p *S3Publisher) Key(irHash, name string) string {
	return path.Join(p.prefix, irHash, name)
}

func contentType(name string) string {
	if path.Ext(name) == ".cbor" {
		return "application/cbor"
	}
	return "application/json"
}
