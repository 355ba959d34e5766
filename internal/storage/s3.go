package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const (
	emptyAWSSessionToken = ""
	defaultS3Region      = "us-east-1"
)

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	ForcePathStyle  bool
	Prefix          string
}

// S3Driver stores objects in a single bucket, optionally below a key prefix.
type S3Driver struct {
	svc    s3iface.S3API
	bucket string
	prefix string
}

func NewS3Driver(cfg S3Config) (*S3Driver, error) {
	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}

	awsCfg := &aws.Config{
		Region: aws.String(region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			emptyAWSSessionToken,
		),
		DisableSSL:       aws.Bool(!cfg.UseSSL),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf(errCreateSessionFmt, err)
	}

	return NewS3DriverWithClient(s3.New(sess), cfg.Bucket, cfg.Prefix), nil
}

// NewS3DriverWithClient builds a driver around an existing client.
func NewS3DriverWithClient(svc s3iface.S3API, bucket, prefix string) *S3Driver {
	return &S3Driver{svc: svc, bucket: bucket, prefix: prefix}
}

func (d *S3Driver) Name() string { return DriverS3 }

func (d *S3Driver) objectKey(key string) string {
	if d.prefix == "" {
		return key
	}
	return BuildObjectKey(d.prefix, key)
}

func (d *S3Driver) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.objectKey(key)),
		Body:   aws.ReadSeekCloser(r),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := d.svc.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf(errSaveObjectFmt, key, err)
	}
	return nil
}

func (d *S3Driver) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := d.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.objectKey(key)),
	})
	if isS3NotFound(err) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf(errOpenObjectFmt, key, err)
	}
	return out.Body, nil
}

// Delete removes key. S3 deletes are idempotent, so a missing key is not reported.
func (d *S3Driver) Delete(ctx context.Context, key string) error {
	_, err := d.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf(errDeleteObjectFmt, key, err)
	}
	return nil
}

func (d *S3Driver) Exists(ctx context.Context, key string) (bool, error) {
	_, err := d.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.objectKey(key)),
	})
	if isS3NotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf(errStatObjectFmt, key, err)
	}
	return true, nil
}

func (d *S3Driver) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, _ := d.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.objectKey(key)),
	})
	req.SetContext(ctx)

	url, err := req.Presign(expiry)
	if err != nil {
		return "", fmt.Errorf(errPresignFmt, err)
	}
	return url, nil
}

func isS3NotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

func BuildObjectKey(folderPath, filename string) string {
	if folderPath == "" {
		return filename
	}

	if folderPath[len(folderPath)-1] != '/' {
		folderPath += "/"
	}

	return folderPath + filename
}
