// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures an [S3] store.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3 stores blobs as objects in a single bucket.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 builds an S3 client. A custom endpoint (MinIO, R2) switches the
// client to path-style addressing.
func NewS3(ctx context.Context, options S3Options) (*S3, error) {
	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(options.Region),
	}
	if options.AccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(options.AccessKey, options.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if options.Endpoint != "" {
			o.BaseEndpoint = aws.String(options.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{client: client, bucket: options.Bucket}, nil
}

/*
Put buffers reader so the digest is known and the body is seekable for
request signing, then uploads it in one PutObject call.

Uploads are bounded by the HTTP layer, so buffering is acceptable here.
*/
func (store *S3) Put(ctx context.Context, key string, reader io.Reader) (Object, error) {
	if err := validateKey(key); err != nil {
		return Object{}, err
	}

	var buffer bytes.Buffer
	digest := newDigestingReader(reader)
	if _, err := io.Copy(&buffer, digest); err != nil {
		return Object{}, fmt.Errorf("blob_s3_read_failed: %w", err)
	}

	_, err := store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(store.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buffer.Bytes()),
		ContentLength: aws.Int64(digest.size),
		Metadata:      map[string]string{"blake3": digest.checksum()},
	})
	if err != nil {
		return Object{}, fmt.Errorf("blob_s3_put_failed: %w", err)
	}

	return Object{Key: key, Size: digest.size, Checksum: digest.checksum()}, nil
}

// Open streams the object under key.
func (store *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	output, err := store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob_s3_get_failed: %w", err)
	}
	return output.Body, nil
}

// Delete removes the object under key. S3 treats missing keys as success.
func (store *S3) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("blob_s3_delete_failed: %w", err)
	}
	return nil
}
