// Package s3util moves restyle inputs and artifacts between S3 and local disk.
package s3util

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// URIScheme prefixes every S3 location accepted on the command line.
const URIScheme = "s3://"

// ObjectGetter is the subset of the S3 client used for downloads.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// IsURI reports whether s looks like an s3:// location.
func IsURI(s string) bool {
	return strings.HasPrefix(s, URIScheme)
}

// ParseURI splits s3://bucket/key into bucket and key. The key may be empty
// only when allowEmptyKey is set (prefix locations).
func ParseURI(uri string, allowEmptyKey bool) (bucket, key string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("not an S3 URI: %q", uri)
	}
	rest := strings.TrimPrefix(uri, URIScheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", uri)
	}
	if key == "" && !allowEmptyKey {
		return "", "", fmt.Errorf("missing key in %q", uri)
	}
	return bucket, key, nil
}

// DownloadToTempFile downloads an S3 object to a new temporary file and returns
// the file path plus a cleanup function that removes it.
func DownloadToTempFile(ctx context.Context, client ObjectGetter, bucket, key string) (string, func(), error) {
	log.Debug().Str("bucket", bucket).Str("key", key).Msg("Downloading from S3")

	tmpFile, err := os.CreateTemp("", "s3dl-*"+filepath.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	remove := func() { os.Remove(tmpFile.Name()) }

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		tmpFile.Close()
		remove()
		return "", nil, fmt.Errorf("S3 GetObject: %w", err)
	}
	defer result.Body.Close()

	if _, err := io.Copy(tmpFile, result.Body); err != nil {
		tmpFile.Close()
		remove()
		return "", nil, fmt.Errorf("download: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		remove()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	return tmpFile.Name(), remove, nil
}

// DownloadURI is DownloadToTempFile for an s3://bucket/key location.
func DownloadURI(ctx context.Context, client ObjectGetter, uri string) (string, func(), error) {
	bucket, key, err := ParseURI(uri, false)
	if err != nil {
		return "", nil, err
	}
	return DownloadToTempFile(ctx, client, bucket, key)
}
