// Package media resolves images into opaque media references by uploading
// them to S3-compatible object storage through presigned URLs.
package media

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/cribfeed/internal/netx"
	"github.com/google/uuid"
)

// Test seams.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig
	presignPutObject     = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	uploadToPresignedURL = netx.UploadToS3PresignedURL
)

const presignExpiry = 15 * time.Minute

type Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	Bucket    string
}

// Presigner hands out upload URLs for new post images.
type Presigner struct {
	cfg Config
	now func() time.Time
}

func NewPresigner(cfg Config) *Presigner {
	return &Presigner{cfg: cfg, now: time.Now}
}

// RandomKey returns a fresh object key grouped by upload date.
func (p *Presigner) RandomKey() string {
	d := p.now()
	return fmt.Sprintf("posts/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (p *Presigner) client(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.cfg.AccessKey,
			p.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if p.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return s3.NewPresignClient(client), nil
}

// PresignUpload returns the object key and a presigned PUT URL for it.
func (p *Presigner) PresignUpload(ctx context.Context) (string, string, error) {
	pc, err := p.client(ctx)
	if err != nil {
		return "", "", fmt.Errorf("s3 config: %w", err)
	}

	bucket := p.cfg.Bucket
	key := p.RandomKey()

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign put: %w", err)
	}

	return key, req.URL, nil
}

// Upload stores data and returns its media reference, ready for
// composer.Compose.
func (p *Presigner) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	key, url, err := p.PresignUpload(ctx)
	if err != nil {
		return "", err
	}
	if err := uploadToPresignedURL(ctx, url, data, contentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}
