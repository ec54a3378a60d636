package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/categolj/entry-api-gemfire/internal/logging"
)

// DefaultPresignExpiration bounds the upload URL validity when no expiration
// is configured.
const DefaultPresignExpiration = 10 * time.Minute

// DefaultAllowedExtensions are the image types accepted for upload.
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "webp"}

// ErrInvalidFileName reports a rejected upload file name.
var ErrInvalidFileName = errors.New("invalid file name")

// function seams for the SDK calls, swapped out in tests
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// S3Options configures the upload target. Endpoint overrides the AWS default
// for S3-compatible stores such as MinIO.
type S3Options struct {
	Bucket            string
	Region            string
	Endpoint          string
	AccessKeyID       string
	SecretAccessKey   string
	Expiration        time.Duration
	AllowedExtensions []string
	CreateBucket      bool
}

// S3Service issues presigned PUT URLs for image uploads, keyed per tenant.
type S3Service struct {
	opts    S3Options
	allowed map[string]struct{}
	log     logging.Logger
}

// NewS3Service wires the S3 service, applying option defaults.
func NewS3Service(opts S3Options, log logging.Logger) *S3Service {
	if opts.Expiration <= 0 {
		opts.Expiration = DefaultPresignExpiration
	}
	if len(opts.AllowedExtensions) == 0 {
		opts.AllowedExtensions = DefaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &S3Service{opts: opts, allowed: allowed, log: log}
}

func (s *S3Service) client(ctx context.Context) (*s3.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(s.opts.Region),
	}
	if s.opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.opts.AccessKeyID, s.opts.SecretAccessKey, "")))
	}
	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// PresignUpload validates the file name and returns a presigned PUT URL for
// the object "{tenantId}/{fileName}".
func (s *S3Service) PresignUpload(ctx context.Context, tenantID, fileName string) (string, error) {
	if err := s.ValidateFileName(fileName); err != nil {
		return "", err
	}
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}
	objectKey := tenantID + "/" + fileName
	s.log.Info(ctx, "action=presign_upload", "tenantId", tenantID, "bucket", s.opts.Bucket, "objectKey", objectKey)
	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.opts.Expiration))
	if err != nil {
		return "", fmt.Errorf("presign put object: %w", err)
	}
	return req.URL, nil
}

// ValidateFileName rejects blank names, path traversal and disallowed
// extensions. Failures wrap ErrInvalidFileName.
func (s *S3Service) ValidateFileName(fileName string) error {
	if strings.TrimSpace(fileName) == "" {
		return fmt.Errorf("%w: file name must not be empty", ErrInvalidFileName)
	}
	if strings.Contains(fileName, "..") || strings.Contains(fileName, "/") || strings.Contains(fileName, "\\") {
		return fmt.Errorf("%w: path traversal not allowed", ErrInvalidFileName)
	}
	dot := strings.LastIndex(fileName, ".")
	if dot == -1 || dot == len(fileName)-1 {
		return fmt.Errorf("%w: missing file extension", ErrInvalidFileName)
	}
	if _, ok := s.allowed[strings.ToLower(fileName[dot+1:])]; !ok {
		return fmt.Errorf("%w: extension not allowed, expected one of %s",
			ErrInvalidFileName, strings.Join(s.opts.AllowedExtensions, ", "))
	}
	return nil
}

// EnsureBucket creates the bucket with a public-read object policy when
// bucket creation is enabled and the bucket does not exist yet.
func (s *S3Service) EnsureBucket(ctx context.Context) error {
	if !s.opts.CreateBucket {
		return nil
	}
	client, err := s.client(ctx)
	if err != nil {
		return err
	}
	bucket := aws.String(s.opts.Bucket)
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: bucket}); err == nil {
		s.log.Info(ctx, "bucket already exists", "bucket", s.opts.Bucket)
		return nil
	} else {
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			return fmt.Errorf("head bucket: %w", err)
		}
	}
	s.log.Info(ctx, "creating bucket", "bucket", s.opts.Bucket)
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: bucket}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	policy := fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"AWS": ["*"]},
      "Action": ["s3:GetObject"],
      "Resource": ["arn:aws:s3:::%s/*"]
    }
  ]
}`, s.opts.Bucket)
	if _, err := client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{Bucket: bucket, Policy: aws.String(policy)}); err != nil {
		return fmt.Errorf("put bucket policy: %w", err)
	}
	return nil
}
