// Package storage wraps the S3-compatible object store that holds member
// photos and shared card PDFs. The bucket is private; reads go through
// time-limited presigned URLs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// Client wraps the S3 client with the operations the app needs: store
// bytes, delete, and mint a temporary read URL.
type Client struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	config        *Config
}

var (
	defaultClient *Client
	setupOnce     sync.Once
)

// Setup initializes the global storage client from the environment. Called
// once at application start; a missing or bad S3 configuration is fatal in
// prod and a warning in dev (photo features degrade to placeholders).
func Setup() {
	setupOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			if GetAppEnv() == "prod" {
				panic(fmt.Sprintf("object storage configuration: %v", err))
			}
			log.Warnf("[Storage] Object storage disabled: %v", err)
			return
		}

		client, err := NewClient(cfg)
		if err != nil {
			if GetAppEnv() == "prod" {
				panic(fmt.Sprintf("object storage connection: %v", err))
			}
			log.Warnf("[Storage] Object storage unavailable: %v", err)
			return
		}
		defaultClient = client
	})
}

// Get returns the global storage client, or nil when storage is disabled.
func Get() *Client {
	return defaultClient
}

// NewClient creates a new object storage client
func NewClient(cfg *Config) (*Client, error) {
	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services (like MinIO/B2) often need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		config:        cfg,
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to object storage: %w", err)
	}

	log.Infof("[Storage] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// testConnection tests the S3 connection by checking if the bucket exists
func (c *Client) testConnection() error {
	ctx := context.Background()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}

	return nil
}

// UploadBytes stores a single object. Each write is one atomic PutObject
// request; there is no partial commit to clean up on failure.
func (c *Client) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to object storage: %w", err)
	}

	log.Infof("[Storage] Successfully uploaded: s3://%s/%s (%d bytes)", c.config.BucketName, key, len(data))
	return nil
}

// DownloadBytes fetches a whole object into memory. Only used for member
// photos, which are bounded by the photo size budget.
func (c *Client) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes an object. Used best-effort when a member is deleted.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	log.Infof("[Storage] Successfully deleted: s3://%s/%s", c.config.BucketName, key)
	return nil
}

// PresignGet mints a time-limited read URL for a private object.
func (c *Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := c.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}

	return req.URL, nil
}
