package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront-backend/internal/config"
)

type fakeS3 struct {
	s3iface.S3API
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []string
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, input)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(ctx aws.Context, input *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.StringValue(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestUploadImageToLocalDisk(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorageService(&config.Config{Storage: config.StorageConfig{
		LocalDir:      dir,
		PublicBaseURL: "http://localhost:8080/uploads/",
	}})
	require.NoError(t, err)
	assert.Equal(t, dir, storage.LocalDir())

	content := pngBytes(t)
	result, err := storage.UploadImage(context.Background(), bytes.NewReader(content), "Apples.PNG", ImageUploadOptions("products"))
	require.NoError(t, err)

	assert.Equal(t, "image/png", result.MimeType)
	assert.True(t, strings.HasPrefix(result.Key, "products/"))
	assert.True(t, strings.HasSuffix(result.Key, ".png"))
	assert.Equal(t, "http://localhost:8080/uploads/"+result.Key, result.URL)

	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(result.Key)))
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	require.NoError(t, storage.DeleteFile(context.Background(), result.Key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(result.Key)))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, storage.DeleteFile(context.Background(), result.Key))
}

func TestUploadImageToS3(t *testing.T) {
	client := &fakeS3{}
	storage := NewStorageServiceWithClient(client, config.AWSConfig{Region: "us-west-2", S3Bucket: "storefront-assets"})
	assert.Empty(t, storage.LocalDir())

	content := pngBytes(t)
	result, err := storage.UploadImage(context.Background(), bytes.NewReader(content), "melon.png", ImageUploadOptions("categories"))
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	assert.Equal(t, "storefront-assets", aws.StringValue(client.puts[0].Bucket))
	assert.Equal(t, "image/png", aws.StringValue(client.puts[0].ContentType))
	assert.Equal(t, content, client.bodies[0])
	assert.Equal(t, "https://storefront-assets.s3.us-west-2.amazonaws.com/"+result.Key, result.URL)

	require.NoError(t, storage.DeleteFile(context.Background(), result.Key))
	assert.Equal(t, []string{result.Key}, client.deletes)
}

func TestUploadImageUsesCloudFront(t *testing.T) {
	storage := NewStorageServiceWithClient(&fakeS3{}, config.AWSConfig{S3Bucket: "b", CloudFrontURL: "https://cdn.example.com/"})

	result, err := storage.UploadImage(context.Background(), bytes.NewReader(pngBytes(t)), "a.png", ImageUploadOptions(""))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+result.Key, result.URL)
}

func TestUploadImageRejectsBadInput(t *testing.T) {
	client := &fakeS3{}
	storage := NewStorageServiceWithClient(client, config.AWSConfig{S3Bucket: "b"})
	ctx := context.Background()

	_, err := storage.UploadImage(ctx, bytes.NewReader(pngBytes(t)), "script.exe", ImageUploadOptions("products"))
	assert.ErrorIs(t, err, ErrUnsupportedUpload)

	_, err = storage.UploadImage(ctx, strings.NewReader("<html>not an image</html>"), "fake.png", ImageUploadOptions("products"))
	assert.ErrorIs(t, err, ErrUnsupportedUpload)

	opts := ImageUploadOptions("products")
	opts.MaxSize = 16
	_, err = storage.UploadImage(ctx, bytes.NewReader(pngBytes(t)), "big.png", opts)
	assert.ErrorIs(t, err, ErrUnsupportedUpload)

	assert.Empty(t, client.puts)
}
