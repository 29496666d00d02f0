package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
)

// ErrObjectNotFound is returned when no catalog object exists for a product.
var ErrObjectNotFound = errors.New("catalog object not found")

// catalogExtensions are tried in order when fetching a product's document.
var catalogExtensions = []struct {
	ext    string
	format string
}{
	{".json", "json"},
	{".yaml", "yaml"},
	{".yml", "yaml"},
}

type S3Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	// Endpoint overrides the S3 endpoint, e.g. for a local S3-compatible server.
	Endpoint string
}

// S3CatalogStore reads and writes catalog documents stored as <prefix><productID>.<ext>.
type S3CatalogStore struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3CatalogStore(opts S3Options) *S3CatalogStore {
	var cfg aws.Config
	var err error

	// If credentials are provided, use them. Otherwise, use default credential chain
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg = aws.Config{
			Region:      opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background(), config.WithRegion(opts.Region))
		if err != nil {
			logger.Warn("Falling back to region-only AWS config", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = aws.Config{Region: opts.Region}
		}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3CatalogStore{
		client: client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
	}
}

func (s *S3CatalogStore) key(productID, ext string) string {
	return s.prefix + productID + ext
}

// Fetch returns the raw document of productID and its format (json or yaml).
func (s *S3CatalogStore) Fetch(ctx context.Context, productID string) ([]byte, string, error) {
	for _, candidate := range catalogExtensions {
		key := s.key(productID, candidate.ext)
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var noSuchKey *types.NoSuchKey
			if errors.As(err, &noSuchKey) {
				continue
			}
			logger.Error("Failed to fetch catalog object", err, map[string]interface{}{
				"bucket": s.bucket,
				"key":    key,
			})
			return nil, "", fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
		}

		body, err := io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return nil, "", fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
		}

		logger.Debug("Catalog object fetched", map[string]interface{}{
			"key":  key,
			"size": len(body),
		})
		return body, candidate.format, nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, productID)
}

// Put uploads a document under the key for its format.
func (s *S3CatalogStore) Put(ctx context.Context, productID, format string, body []byte) error {
	ext := ".json"
	contentType := "application/json"
	if strings.EqualFold(format, "yaml") {
		ext = ".yaml"
		contentType = "application/yaml"
	}
	key := s.key(productID, ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		logger.Error("Failed to upload catalog object", err, map[string]interface{}{
			"bucket": s.bucket,
			"key":    key,
		})
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}

	logger.Info("Catalog object uploaded", map[string]interface{}{
		"bucket": s.bucket,
		"key":    key,
	})
	return nil
}
