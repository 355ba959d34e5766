package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)] = data
	f.types[aws.StringValue(in.Key)] = aws.StringValue(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObjectWithContext(_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)]; !ok {
		return nil, awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), http.StatusNotFound, "req-1")
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Driver_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	d := NewS3DriverWithClient(fake, "bucket", "gemini")
	ctx := context.Background()

	require.NoError(t, d.Save(ctx, "users/u1/f.png", strings.NewReader("png"), 3, "image/png"))
	assert.Contains(t, fake.objects, "bucket/gemini/users/u1/f.png")
	assert.Equal(t, "image/png", fake.types["gemini/users/u1/f.png"])

	exists, err := d.Exists(ctx, "users/u1/f.png")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := d.Open(ctx, "users/u1/f.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "png", string(data))

	require.NoError(t, d.Delete(ctx, "users/u1/f.png"))

	exists, err = d.Exists(ctx, "users/u1/f.png")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = d.Open(ctx, "users/u1/f.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3Driver_PresignGet(t *testing.T) {
	d, err := NewS3Driver(S3Config{
		Bucket:          "files",
		Region:          "eu-west-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		UseSSL:          true,
	})
	require.NoError(t, err)

	url, err := d.PresignGet(context.Background(), "users/u1/f.png", 5*time.Minute)
	require.NoError(t, err)

	assert.Contains(t, url, "files")
	assert.Contains(t, url, "users/u1/f.png")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=300")
}

func TestBuildObjectKey(t *testing.T) {
	assert.Equal(t, "a.txt", BuildObjectKey("", "a.txt"))
	assert.Equal(t, "p/a.txt", BuildObjectKey("p", "a.txt"))
	assert.Equal(t, "p/a.txt", BuildObjectKey("p/", "a.txt"))
}
