package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// s3Backend stores files in an S3 bucket. Uploads go through short-lived
// presigned PUT URLs; retrieval targets are long-lived public object URLs.
type s3Backend struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	uploader   *manager.Uploader
	bucket     string
	region     string
	presignTTL time.Duration
	logger     *zap.Logger
}

// NewS3 creates an S3 backend using the default AWS credential chain
func NewS3(ctx context.Context, region, bucket string, presignTTL time.Duration, logger *zap.Logger) (*s3Backend, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &s3Backend{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		uploader:   manager.NewUploader(client),
		bucket:     bucket,
		region:     region,
		presignTTL: presignTTL,
		logger:     logger,
	}, nil
}

// ReserveLocation presigns a PUT for a freshly generated object key
func (b *s3Backend) ReserveLocation(ctx context.Context, originalFileName, contentType string) (Location, error) {
	fileName := GenerateFileName(originalFileName)

	req, err := b.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(fileName),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(b.presignTTL))
	if err != nil {
		return Location{}, fmt.Errorf("failed to presign upload: %w", err)
	}

	return Location{
		FileName:  fileName,
		UploadURL: req.URL,
		FileURL:   b.objectURL(fileName),
	}, nil
}

// Save uploads the contents of r and returns the byte count
func (b *s3Backend) Save(ctx context.Context, fileName, contentType string, r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(fileName),
		Body:        cr,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload object: %w", err)
	}
	return cr.size, nil
}

// DeleteFile removes an object. A missing object returns false without error;
// request failures are logged and reported as false.
func (b *s3Backend) DeleteFile(ctx context.Context, fileName string) bool {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(fileName),
	})
	if err != nil {
		var nf *types.NotFound
		if !errors.As(err, &nf) {
			b.logger.Warn("failed to check stored object", zap.String("file", fileName), zap.Error(err))
		}
		return false
	}

	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(fileName),
	})
	if err != nil {
		b.logger.Warn("failed to delete stored object", zap.String("file", fileName), zap.Error(err))
		return false
	}
	return true
}

// Inspect reports size and retrieval URL for an object, nil if absent
func (b *s3Backend) Inspect(ctx context.Context, fileName string) (*FileInfo, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(fileName),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to head object: %w", err)
	}
	return &FileInfo{
		Size: aws.ToInt64(out.ContentLength),
		URL:  b.objectURL(fileName),
	}, nil
}

func (b *s3Backend) objectURL(fileName string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, url.PathEscape(fileName))
}
