package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newS3ServiceForTest(opts S3Options) *S3Service {
	if opts.Bucket == "" {
		opts.Bucket = "blog-images"
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	return NewS3Service(opts, testLogger())
}

func TestValidateFileName(t *testing.T) {
	svc := newS3ServiceForTest(S3Options{})
	tests := []struct {
		name     string
		fileName string
		ok       bool
	}{
		{"png", "image.png", true},
		{"uppercase extension", "IMAGE.PNG", true},
		{"webp", "photo.webp", true},
		{"empty", "", false},
		{"blank", "   ", false},
		{"traversal dots", "../secret.png", false},
		{"slash", "a/b.png", false},
		{"backslash", "a\\b.png", false},
		{"no extension", "image", false},
		{"trailing dot", "image.", false},
		{"disallowed extension", "script.exe", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateFileName(tt.fileName)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFileName))
			}
		})
	}
}

func TestValidateFileNameCustomExtensions(t *testing.T) {
	svc := newS3ServiceForTest(S3Options{AllowedExtensions: []string{"svg"}})
	assert.NoError(t, svc.ValidateFileName("diagram.svg"))
	assert.Error(t, svc.ValidateFileName("image.png"))
}

func TestPresignUpload(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPresign := presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPresign
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}
	var capturedEndpoint string
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint != nil {
			capturedEndpoint = *opts.BaseEndpoint
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		require.NotNil(t, c)
		return &s3.PresignClient{}
	}
	var capturedKey string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "blog-images", aws.ToString(in.Bucket))
		capturedKey = aws.ToString(in.Key)
		return &v4.PresignedHTTPRequest{URL: "http://minio:9000/blog-images/" + capturedKey + "?signed"}, nil
	}

	svc := newS3ServiceForTest(S3Options{
		Endpoint:        "http://minio:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Expiration:      time.Minute,
	})
	url, err := svc.PresignUpload(context.Background(), "t1", "photo.jpg")
	require.NoError(t, err)

	assert.Equal(t, "t1/photo.jpg", capturedKey)
	assert.Contains(t, url, "t1/photo.jpg")
	assert.Equal(t, "http://minio:9000", capturedEndpoint)
}

func TestPresignUploadRejectsBadName(t *testing.T) {
	svc := newS3ServiceForTest(S3Options{})
	_, err := svc.PresignUpload(context.Background(), "t1", "../../etc/passwd.png")
	assert.True(t, errors.Is(err, ErrInvalidFileName))
}

func TestPresignUploadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origPresign := presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		presignPutObject = origPresign
	})
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("boom")
	}

	svc := newS3ServiceForTest(S3Options{})
	_, err := svc.PresignUpload(context.Background(), "t1", "photo.jpg")
	assert.ErrorContains(t, err, "presign put object")
}

func TestEnsureBucketDisabled(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		t.Fatal("config should not be loaded when bucket creation is off")
		return aws.Config{}, nil
	}

	svc := newS3ServiceForTest(S3Options{CreateBucket: false})
	assert.NoError(t, svc.EnsureBucket(context.Background()))
}
