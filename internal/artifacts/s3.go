package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures an S3Store. Grounded on the teacher's
// internal/objectstore/s3.go NewS3Store options, narrowed to what the
// pipeline needs (no TLS override, no custom HTTP client injection).
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Store implements Store against AWS S3 or an S3-compatible endpoint
// (e.g. MinIO), adapted from the teacher's internal/objectstore/s3.go.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store builds an S3Store from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("artifacts: s3 bucket is required")
	}
	awsOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("artifacts: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Store) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + key
}

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	fk := s.fullKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &fk,
		Body:        r,
		ContentType: &contentType,
	})
	return err
}

func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, ObjectAttrs, error) {
	fk := s.fullKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &fk})
	if err != nil {
		return nil, ObjectAttrs{}, fmt.Errorf("artifacts: s3 get %q: %w", key, err)
	}
	attrs := ObjectAttrs{Key: key}
	if out.ContentLength != nil {
		attrs.Size = *out.ContentLength
	}
	if out.LastModified != nil {
		attrs.LastModified = *out.LastModified
	}
	if out.ContentType != nil {
		attrs.ContentType = *out.ContentType
	}
	return out.Body, attrs, nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]ObjectAttrs, error) {
	fullPrefix := s.fullKey(prefix)
	var out []ObjectAttrs
	var token *string
	for {
		resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &fullPrefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("artifacts: s3 list %q: %w", prefix, err)
		}
		for _, obj := range resp.Contents {
			attrs := ObjectAttrs{Key: strings.TrimPrefix(*obj.Key, s.prefix)}
			if obj.Size != nil {
				attrs.Size = *obj.Size
			}
			if obj.LastModified != nil {
				attrs.LastModified = *obj.LastModified
			} else {
				attrs.LastModified = time.Time{}
			}
			out = append(out, attrs)
		}
		if resp.IsTruncated == nil || !*resp.IsTruncated {
			break
		}
		token = resp.NextContinuationToken
	}
	return out, nil
}

func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	fk := s.fullKey(key)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &fk})
	if err != nil {
		return false, nil
	}
	return true, nil
}

var _ Store = (*S3Store)(nil)
