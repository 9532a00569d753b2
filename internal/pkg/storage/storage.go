package storage

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Storage is the read side of the card image bucket.
type Storage interface {
	// Exists reports whether an object is present under key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the public URL for key.
	GetURL(key string) string
}

// Config selects and configures a backend. R2 wins when both are set.
type Config struct {
	R2 R2Config

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
}

// New builds the configured backend, or returns nil when none is configured.
func New(cfg Config) (Storage, error) {
	switch {
	case cfg.R2.AccountID != "":
		s, err := NewR2Storage(cfg.R2)
		if err != nil {
			return nil, err
		}
		return s, nil
	case cfg.S3Endpoint != "":
		s, err := NewS3Storage(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, nil
}

// headObjectAPI is the part of *s3.Client used here.
type headObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

func headExists(ctx context.Context, api headObjectAPI, bucket, key string) (bool, error) {
	_, err := api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// isNotFound matches the ways S3-compatible APIs report a missing object.
// HEAD responses have no body, so R2 and MinIO often surface only the status.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}
