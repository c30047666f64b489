package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/fitmania/gymdesk/internal/pkg/env"
)

// Config holds object storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
}

// LoadConfig loads object storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is required")
	}

	return config, nil
}

// PhotoKey generates the object key for a member photo. Keys are scoped by
// owner so one gym's photos are never addressable under another's prefix.
func PhotoKey(ownerID uint, memberUUID string, ts time.Time) string {
	return fmt.Sprintf("%d/members/%s-%d.jpg", ownerID, memberUUID, ts.UnixMilli())
}

// CardKey generates the object key for a shared member card PDF.
func CardKey(ownerID uint, memberNo uint, ts time.Time) string {
	return fmt.Sprintf("%d/cards/member-%d-%d.pdf", ownerID, memberNo, ts.UnixMilli())
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
