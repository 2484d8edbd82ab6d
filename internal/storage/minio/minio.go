package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Client struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewClient creates a new Minio client and ensures the image bucket exists
func NewClient(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Client, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	client := &Client{
		client:  minioClient,
		bucket:  bucket,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket),
	}

	if err := client.ensureBucketExists(context.Background(), bucket); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket %s exists: %w", bucket, err)
	}

	return client, nil
}

// ensureBucketExists creates a bucket if it doesn't exist
func (c *Client) ensureBucketExists(ctx context.Context, bucketName string) error {
	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = c.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Stat returns the user metadata of the object at key. Absent objects and
// transient failures both surface as an error; callers decide what that means.
func (c *Client) Stat(ctx context.Context, key string) (map[string]string, error) {
	info, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	// StatObject canonicalizes metadata keys; normalize for lookups.
	meta := make(map[string]string, len(info.UserMetadata))
	for k, v := range info.UserMetadata {
		meta[strings.ToLower(k)] = v
	}
	return meta, nil
}

// Put stores data at key with the given content type and user metadata.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// Get downloads the object at key
func (c *Client) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download object %s: %w", key, err)
	}
	return object, nil
}

// PublicURL returns the stable, non-expiring URL of the object at key.
func (c *Client) PublicURL(key string) string {
	return c.baseURL + "/" + key
}
