package store

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	bdterrors "github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

// DefaultContentType is used when content type detection fails.
const DefaultContentType = "application/octet-stream"

// S3API is the subset of the AWS S3 client the store uses. Narrowed for
// mockability.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput,
		optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput,
		optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput,
		optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store serves the artifact-store contract from an S3 bucket fronted by
// the channel web server: object keys mirror the server's URL paths.
type S3Store struct {
	client S3API
	bucket string
}

// S3Option configures S3Store construction.
type S3Option func(*s3Config)

type s3Config struct {
	region   string
	endpoint string
	client   S3API
}

// WithRegion sets the AWS region.
func WithRegion(region string) S3Option {
	return func(c *s3Config) { c.region = region }
}

// WithEndpoint points the client at a custom S3-compatible endpoint, such
// as the lab's internal gateway.
func WithEndpoint(endpoint string) S3Option {
	return func(c *s3Config) { c.endpoint = endpoint }
}

// WithClient injects a pre-built S3 client. Primarily used by tests with a
// mocked S3API.
func WithClient(client S3API) S3Option {
	return func(c *s3Config) { c.client = client }
}

// NewS3Store creates a store over the given bucket, loading AWS credentials
// from the default chain unless a client is injected.
func NewS3Store(ctx context.Context, bucket string, opts ...S3Option) (*S3Store, error) {
	if bucket == "" {
		return nil, bdterrors.New(bdterrors.CodeInvalidConfig, "bucket name cannot be empty")
	}

	cfg := &s3Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, bdterrors.Wrap(err, bdterrors.CodeInvalidConfig,
				"loading AWS configuration")
		}
		if cfg.region != "" {
			awsCfg.Region = cfg.region
		}

		var s3Opts []func(*s3.Options)
		if cfg.endpoint != "" {
			s3Opts = append(s3Opts, func(o *s3.Options) {
				o.BaseEndpoint = aws.String(cfg.endpoint)
				o.UsePathStyle = true
			})
		}
		cfg.client = s3.NewFromConfig(awsCfg, s3Opts...)
	}

	return &S3Store{client: cfg.client, bucket: bucket}, nil
}

// List implements Store by paginating the channel's key space and filtering
// basenames on the prefix.
func (s *S3Store) List(ctx context.Context, channelURL, prefix string) ([]string, error) {
	channelKey := objectKey(channelURL)

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(channelKey + "/"),
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, bdterrors.Wrap(err, bdterrors.CodeNetwork,
				"listing "+channelURL)
		}
		for _, obj := range page.Contents {
			base := path.Base(aws.ToString(obj.Key))
			if strings.HasPrefix(base, prefix) {
				names = append(names, base)
			}
		}
	}
	return names, nil
}

// Upload implements Store. Content type is detected from the local file.
func (s *S3Store) Upload(ctx context.Context, localPath, remotePath string, overwrite bool) error {
	if !overwrite {
		exists, err := s.Exists(ctx, remotePath)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyExists
		}
	}

	file, err := os.Open(localPath)
	if err != nil {
		return bdterrors.Wrap(err, bdterrors.CodeNotFound, "opening "+localPath)
	}
	defer file.Close()

	contentType := DefaultContentType
	if mtype, mErr := mimetype.DetectFile(localPath); mErr == nil {
		contentType = mtype.String()
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey(remotePath)),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return bdterrors.Wrap(err, bdterrors.CodePublishFailed,
			"uploading "+localPath+" to "+remotePath)
	}
	return nil
}

// Exists implements Store via a HEAD request.
func (s *S3Store) Exists(ctx context.Context, remotePath string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(remotePath)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, bdterrors.Wrap(err, bdterrors.CodeNetwork,
			"checking "+remotePath)
	}
	return true, nil
}

// Delete implements Store.
func (s *S3Store) Delete(ctx context.Context, remotePath string) error {
	exists, err := s.Exists(ctx, remotePath)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(remotePath)),
	})
	if err != nil {
		return bdterrors.Wrap(err, bdterrors.CodeNetwork, "deleting "+remotePath)
	}
	return nil
}
