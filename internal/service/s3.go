package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"tush00nka/bbbab_chat/internal/config"
)

const s3AvatarPrefix = "avatars"

type S3AvatarStorage struct {
	bucket    string
	publicURL string
	uploader  *manager.Uploader
	s3Client  *s3.Client
}

// NewS3AvatarStorage uses static credentials when S3_ACCESS_KEY_ID is set and
// the default AWS credential chain otherwise. A custom endpoint (MinIO and
// friends) switches to path-style addressing.
func NewS3AvatarStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*S3AvatarStorage, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var awsCfg aws.Config
	if cfg.S3AccessKeyID != "" {
		awsCfg = aws.Config{
			Region: cfg.S3Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.S3AccessKeyID,
				cfg.S3SecretAccessKey,
				"",
			),
		}
	} else {
		var err error
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
	}

	s3Opts := []func(*s3.Options){}
	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		})
	}
	s3Client := s3.NewFromConfig(awsCfg, s3Opts...)

	log.Info("S3 avatar storage initialized",
		zap.String("bucket", cfg.S3BucketName),
		zap.String("endpoint", cfg.S3Endpoint))

	return &S3AvatarStorage{
		bucket:    cfg.S3BucketName,
		publicURL: s3PublicURL(cfg),
		uploader:  manager.NewUploader(s3Client),
		s3Client:  s3Client,
	}, nil
}

func s3PublicURL(cfg *config.Config) string {
	switch {
	case cfg.S3PublicURL != "":
		return strings.TrimRight(cfg.S3PublicURL, "/")
	case cfg.S3Endpoint != "":
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3BucketName
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3BucketName, cfg.S3Region)
	}
}

func (s *S3AvatarStorage) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objectKey := path.Join(s3AvatarPrefix, key)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return s.publicURL + "/" + objectKey, nil
}

func (s *S3AvatarStorage) Delete(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Join(s3AvatarPrefix, key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	return nil
}
