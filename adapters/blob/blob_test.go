package blob

import (
	"context"
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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads/")
	require.NoError(t, err)

	ctx := context.Background()
	url, err := store.Put(ctx, "delivery/abc/photo.jpg", "image/jpeg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/delivery/abc/photo.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "delivery", "abc", "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	require.NoError(t, store.Delete(ctx, "delivery/abc/photo.jpg"))
	require.NoError(t, store.Delete(ctx, "delivery/abc/photo.jpg"), "deleting twice is fine")
}

func TestLocalStoreKeepsKeysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "uploads"), "/uploads")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../../escape.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "uploads", "escape.txt"))
	assert.NoError(t, err)

	_, err = store.Put(context.Background(), "", "text/plain", strings.NewReader("x"))
	assert.Error(t, err)
}

type mockS3 struct {
	s3iface.S3API
	mock.Mock
}

func (m *mockS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	args := m.Called(aws.StringValue(in.Bucket), aws.StringValue(in.Key), aws.StringValue(in.ContentType), string(body))
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObjectWithContext(ctx aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	args := m.Called(aws.StringValue(in.Bucket), aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func TestS3StorePut(t *testing.T) {
	client := &mockS3{}
	client.On("PutObjectWithContext", "bhss-uploads", "delivery/1/a.jpg", "image/jpeg", "jpeg").Return(nil)
	client.On("DeleteObjectWithContext", "bhss-uploads", "delivery/1/a.jpg").Return(nil)

	store := NewS3StoreWithClient(client, "bhss-uploads", "ap-southeast-1")
	url, err := store.Put(context.Background(), "delivery/1/a.jpg", "image/jpeg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "https://bhss-uploads.s3.ap-southeast-1.amazonaws.com/delivery/1/a.jpg", url)

	require.NoError(t, store.Delete(context.Background(), "delivery/1/a.jpg"))
	client.AssertExpectations(t)
}
