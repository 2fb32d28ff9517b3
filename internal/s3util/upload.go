package s3util

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/filehandler"
)

// projectTag is the URL-encoded S3 object tagging string for cost allocation.
const projectTag = "Project=ui-restyler"

// DefaultURLExpiry is how long presigned artifact URLs stay valid.
const DefaultURLExpiry = time.Hour

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// URLPresigner is the subset of the S3 presign client used for artifact links.
type URLPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Artifact is one uploaded run file.
type Artifact struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	URL  string `json:"url,omitempty"`
}

// Uploader publishes run directories to a bucket under Prefix.
// Presigner is optional; without it artifacts carry no URL.
type Uploader struct {
	Client    ObjectPutter
	Presigner URLPresigner
	Bucket    string
	Prefix    string
	URLExpiry time.Duration
}

// ProjectTagging returns a pointer to the URL-encoded S3 object tagging string.
func ProjectTagging() *string {
	t := projectTag
	return &t
}

// UploadRun uploads every regular file in runDir, plus any extra files, to
// <Prefix>/<run id>/<name>. Files are uploaded in name order.
func (u *Uploader) UploadRun(ctx context.Context, runDir string, extra ...string) ([]Artifact, error) {
	entries, err := os.ReadDir(runDir)
	if err != nil {
		return nil, fmt.Errorf("read run directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(runDir, e.Name()))
		}
	}
	sort.Strings(files)
	files = append(files, extra...)

	runID := filepath.Base(runDir)
	artifacts := make([]Artifact, 0, len(files))
	for _, f := range files {
		key := path.Join(u.Prefix, runID, filepath.Base(f))
		if err := u.putFile(ctx, f, key); err != nil {
			return artifacts, err
		}
		a := Artifact{Name: filepath.Base(f), Key: key}
		if u.Presigner != nil {
			url, err := GeneratePresignedURL(ctx, u.Presigner, u.Bucket, key, u.expiry())
			if err != nil {
				return artifacts, err
			}
			a.URL = url
		}
		artifacts = append(artifacts, a)
	}

	log.Info().
		Str("bucket", u.Bucket).
		Str("run_id", runID).
		Int("files", len(artifacts)).
		Msg("Run artifacts uploaded to S3")

	return artifacts, nil
}

func (u *Uploader) putFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(localPath), err)
	}
	defer f.Close()

	contentType := artifactContentType(localPath)

	_, err = u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.Bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
		Tagging:     ProjectTagging(),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	log.Debug().Str("key", key).Str("content_type", contentType).Msg("Uploaded artifact")
	return nil
}

func artifactContentType(p string) string {
	ext := strings.ToLower(filepath.Ext(p))
	if mimeType, err := filehandler.GetMIMEType(ext); err == nil {
		return mimeType
	}
	switch ext {
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

func (u *Uploader) expiry() time.Duration {
	if u.URLExpiry > 0 {
		return u.URLExpiry
	}
	return DefaultURLExpiry
}

// GeneratePresignedURL creates a pre-signed GET URL for an S3 object.
func GeneratePresignedURL(ctx context.Context, presigner URLPresigner, bucket, key string, expiry time.Duration) (string, error) {
	result, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	return result.URL, nil
}
