package connectors

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/maraichr/ontograph/internal/config"
	"github.com/maraichr/ontograph/internal/ingestion"
)

// maxObjectSize caps the body read for a single document.
const maxObjectSize = 32 << 20

// S3Source yields the documents stored under a bucket prefix. Works with both
// AWS S3 and MinIO.
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Source creates a source for cfg.Bucket. An empty prefix falls back to
// cfg.Prefix.
func NewS3Source(ctx context.Context, cfg appconfig.S3Config, prefix string) (*S3Source, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
			o.UsePathStyle = true
		}
	})

	if prefix == "" {
		prefix = cfg.Prefix
	}
	return &S3Source{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

// Documents streams every supported object under the prefix to fn.
func (c *S3Source) Documents(ctx context.Context, fn func(ingestion.Document) error) error {
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: &c.bucket,
		Prefix: &c.prefix,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			key := *obj.Key

			// Skip "directory" markers
			if strings.HasSuffix(key, "/") {
				continue
			}
			mimeType, ok := MimeType(key)
			if !ok {
				continue
			}

			data, err := c.fetch(ctx, key)
			if err != nil {
				return fmt.Errorf("download %s: %w", key, err)
			}
			if err := fn(ingestion.Document{Name: key, MimeType: mimeType, Data: data}); err != nil {
				return err
			}
		}
	}

	return nil
}

func (c *S3Source) fetch(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, maxObjectSize))
}
