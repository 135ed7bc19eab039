// Package archive uploads result bundles to S3 compatible object storage
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/config"
	"github.com/quantreplay/backtester/log"
	"github.com/quantreplay/backtester/report"
)

const jsonContentType = "application/json"

var errNoBucket = errors.New("archive bucket is required")

// Uploader stores an object under a key
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Uploader writes objects to one bucket with the S3 upload manager
type S3Uploader struct {
	bucket   string
	uploader objectUploader
}

// NewS3Uploader builds an uploader from the default AWS credential chain,
// overriding region and endpoint when set
func NewS3Uploader(ctx context.Context, s *config.ArchiveSettings) (*S3Uploader, error) {
	if s == nil {
		return nil, fmt.Errorf("%w archive settings", common.ErrNilArguments)
	}
	if s.Bucket == "" {
		return nil, errNoBucket
	}
	var opts []func(*awsconfig.LoadOptions) error
	if s.Region != "" {
		opts = append(opts, awsconfig.WithRegion(s.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{
		bucket:   s.Bucket,
		uploader: manager.NewUploader(client),
	}, nil
}

// Upload implements Uploader
func (u *S3Uploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%v/%v: %w", u.bucket, key, err)
	}
	return nil
}

// Key returns the object key for a results bundle under prefix
func Key(prefix string, d *report.Data) string {
	return path.Join(strings.Trim(prefix, "/"), d.FileName())
}

// Store uploads a run's results bundle and returns the key it was stored at
func Store(ctx context.Context, u Uploader, prefix string, d *report.Data) (string, error) {
	if u == nil {
		return "", fmt.Errorf("%w uploader", common.ErrNilArguments)
	}
	b, err := d.JSON()
	if err != nil {
		return "", err
	}
	key := Key(prefix, d)
	if err = u.Upload(ctx, key, bytes.NewReader(b), jsonContentType); err != nil {
		return "", err
	}
	log.Infof(log.Report, "archived results of run %v to %v", d.MetaData.ID, key)
	return key, nil
}
