package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type S3Config struct {
	Bucket string
	Region string

	// Endpoint overrides the S3 endpoint (for S3 compatible storages).
	// When it is set, path-style addressing is used.
	Endpoint string

	// AccessKeyID and SecretAccessKey are static credentials.
	// When empty, the default credential chain of AWS SDK is used.
	AccessKeyID     string
	SecretAccessKey string
}

// S3Bucket is a Bucket on Amazon S3 (or compatible storage).
type S3Bucket struct {
	name     string
	client   *s3.Client
	uploader *manager.Uploader
}

var _ Bucket = &S3Bucket{}

// NewS3Bucket creates S3 client for the bucket.
//
// It does not connect to S3.
func NewS3Bucket(ctx context.Context, conf S3Config) (*S3Bucket, error) {
	if conf.Bucket == "" {
		return nil, errors.New("bucket name is empty")
	}

	opts := []func(*config.LoadOptions) error{}
	if conf.Region != "" {
		opts = append(opts, config.WithRegion(conf.Region))
	}
	if conf.AccessKeyID != "" && conf.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, ""),
		))
	}

	awsconf, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot load aws configuration: %w", err)
	}

	client := s3.NewFromConfig(awsconf, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Bucket{
		name:     conf.Bucket,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (b *S3Bucket) Name() string {
	return b.name
}

// classify maps S3 API errors onto sentinel errors of this package.
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "Forbidden", "ExpiredToken":
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %w", ErrNoSuchBucket, err)
	}
	return err
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}

func (b *S3Bucket) Exists(ctx context.Context, key string) (ObjectInfo, bool, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return ObjectInfo{}, false, nil
		}
		return ObjectInfo{}, false, classify(err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		LastModified: aws.ToTime(out.LastModified),
	}, true, nil
}

func (b *S3Bucket) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	// the uploader splits large bodies into multipart upload by itself.
	in := &s3.PutObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
		Body:   body,
	}
	if _, err := b.uploader.Upload(ctx, in); err != nil {
		return classify(err)
	}
	return nil
}

func (b *S3Bucket) List(ctx context.Context, prefix string, callback func(ObjectInfo) error) error {
	pages := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return classify(err)
		}
		for _, obj := range page.Contents {
			if err := callback(ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
				LastModified: aws.ToTime(obj.LastModified),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
