// Package objectstore uploads synthesized audio to S3-compatible storage.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putObjectClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds object store settings. PublicURL, when set, overrides the
// default virtual-hosted S3 URL for serving uploaded objects (e.g. a CDN
// front).
type Config struct {
	Region    string
	Bucket    string
	PublicURL string
	Timeout   time.Duration
}

// Store uploads blobs to one bucket.
type Store struct {
	client putObjectClient
	cfg    Config
}

// New creates a store with the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(cfg, s3.NewFromConfig(awsCfg)), nil
}

// NewWithClient creates a store around an existing client. Used by tests
// with a fake.
func NewWithClient(cfg Config, client putObjectClient) *Store {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Store{client: client, cfg: cfg}
}

// Upload writes data under key and returns the object's URL.
func (s *Store) Upload(ctx context.Context, data []byte, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}

	return s.URL(key), nil
}

// URL returns the serving URL for an uploaded key.
func (s *Store) URL(key string) string {
	if s.cfg.PublicURL != "" {
		return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
