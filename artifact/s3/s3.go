// Package s3 provides an ArtifactStore backed by AWS S3 or any S3-compatible
// object store. Artifacts are stored under "<prefix><sessionID>/<artifactID>".
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/layoutgen/artifact"
)

// Config holds the configuration for creating an S3 artifact store.
type Config struct {
	// Bucket is the bucket to use for storage.
	Bucket string
	// Prefix is prepended to every object key.
	Prefix string
	// Region is the AWS region.
	Region string
	// Endpoint overrides the S3 endpoint for S3-compatible services.
	Endpoint string
	// AccessKeyID and SecretAccessKey select static credentials. When empty
	// the default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	// UsePathStyle enables path-style addressing.
	UsePathStyle bool
	// ContentType is attached to stored objects. Defaults to image/png.
	ContentType string
}

// Store implements core.ArtifactStore on top of an S3 bucket.
type Store struct {
	client      *s3.Client
	bucket      string
	prefix      string
	contentType string
}

// New creates a new Store with the given configuration.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewFromClient(client, cfg), nil
}

// NewFromClient creates a Store from an existing S3 client.
func NewFromClient(client *s3.Client, cfg Config) *Store {
	contentType := cfg.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{
		client:      client,
		bucket:      cfg.Bucket,
		prefix:      prefix,
		contentType: contentType,
	}
}

func (s *Store) sessionPrefix(sessionID string) string {
	return s.prefix + sessionID + "/"
}

func (s *Store) key(sessionID, artifactID string) string {
	return s.sessionPrefix(sessionID) + artifactID
}

// Save stores (or overwrites) the artifact bytes.
func (s *Store) Save(ctx context.Context, sessionID, artifactID string, data []byte) error {
	key := s.key(sessionID, artifactID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(s.contentType),
	})
	if err != nil {
		return fmt.Errorf("s3: failed to put object %q: %w", key, err)
	}
	return nil
}

// Get retrieves the artifact bytes or artifact.ErrNotFound.
func (s *Store) Get(ctx context.Context, sessionID, artifactID string) ([]byte, error) {
	key := s.key(sessionID, artifactID)
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, artifact.ErrNotFound
		}
		return nil, fmt.Errorf("s3: failed to get object %q: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to read object body %q: %w", key, err)
	}
	return data, nil
}

// List returns the artifact ids stored for the session in key order.
func (s *Store) List(ctx context.Context, sessionID string) ([]string, error) {
	prefix := s.sessionPrefix(sessionID)
	ids := []string{}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: failed to list objects %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			ids = append(ids, strings.TrimPrefix(aws.ToString(obj.Key), prefix))
		}
	}
	return ids, nil
}

// Delete removes the artifact or returns artifact.ErrNotFound.
func (s *Store) Delete(ctx context.Context, sessionID, artifactID string) error {
	key := s.key(sessionID, artifactID)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return artifact.ErrNotFound
		}
		return fmt.Errorf("s3: failed to head object %q: %w", key, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3: failed to delete object %q: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
