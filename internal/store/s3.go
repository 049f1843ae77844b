package store

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "oiflow/config"
	"oiflow/logger"
)

// ObjectStore is the read-only boundary to the archive bucket: enumerate the
// keys that exist under a prefix, and fetch one object's bytes.
type ObjectStore interface {
	List(ctx context.Context, prefix string) (map[string]struct{}, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// s3API is the subset of the S3 client the store uses. The paginator only
// needs ListObjectsV2.
type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads the daily archive objects from S3. The archive bucket is
// requester-pays, so every call carries the request-payer header when
// configured. Without credentials the store falls back to anonymous access.
type S3Store struct {
	client        s3API
	bucket        string
	requesterPays bool
	log           *logger.Log
}

// NewS3Store configures an S3-backed object store from the application
// configuration.
func NewS3Store(ctx context.Context, cfg *appconfig.Config) (*S3Store, error) {
	log := logger.GetLogger()

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Storage.S3.Region)}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	} else {
		// Public archive: unsigned requests still work for listing and gets.
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
		log.WithComponent("s3_store").Warn("no AWS credentials configured; using anonymous access")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3.Endpoint)
		}
		o.UsePathStyle = cfg.Storage.S3.PathStyle
	})

	log.WithComponent("s3_store").WithFields(logger.Fields{
		"bucket":         cfg.Storage.S3.Bucket,
		"region":         cfg.Storage.S3.Region,
		"requester_pays": cfg.Storage.S3.RequesterPays,
	}).Debug("s3 store initialized")

	return &S3Store{
		client:        client,
		bucket:        cfg.Storage.S3.Bucket,
		requesterPays: cfg.Storage.S3.RequesterPays,
		log:           log,
	}, nil
}

// List walks the full namespace below prefix and returns every object key
// found. Listing is paginated; the result is only usable when the walk
// completed, so any page error fails the whole call.
func (s *S3Store) List(ctx context.Context, prefix string) (map[string]struct{}, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	if s.requesterPays {
		input.RequestPayer = s3types.RequestPayerRequester
	}

	keys := make(map[string]struct{})
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	pages := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects under %s: %w", prefix, err)
		}
		pages++
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys[*obj.Key] = struct{}{}
			}
		}
	}

	s.log.WithComponent("s3_store").WithFields(logger.Fields{
		"prefix": prefix,
		"keys":   len(keys),
		"pages":  pages,
	}).Info("listed archive namespace")

	return keys, nil
}

// Fetch downloads one object and returns its raw bytes.
func (s *S3Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if s.requesterPays {
		input.RequestPayer = s3types.RequestPayerRequester
	}

	out, err := s.client.GetObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}
