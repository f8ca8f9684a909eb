package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icondo/parcel-service/internal/config"
)

func TestNewKey(t *testing.T) {
	key := NewKey("42", PurposeCollection, "jpg")
	assert.True(t, strings.HasPrefix(key, "parcels/42/out-"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)

	assert.True(t, strings.HasPrefix(NewKey("", PurposeIntake, ".png"), "parcels/temp/in-"))
	assert.NotEqual(t, NewKey("1", PurposeIntake, ".png"), NewKey("1", PurposeIntake, ".png"))
}

func TestLocalStorePutDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(root, "/uploads/")
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))

	stored, err := store.Put(ctx, Object{Key: "parcels/1/in-a.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")})
	require.NoError(t, err)
	assert.Equal(t, "parcels/1/in-a.jpg", stored.Key)
	assert.Equal(t, "/uploads/parcels/1/in-a.jpg", stored.URL)

	content, err := os.ReadFile(filepath.Join(root, "parcels", "1", "in-a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(content))

	require.NoError(t, store.Delete(ctx, stored.Key))
	_, err = os.Stat(filepath.Join(root, "parcels", "1", "in-a.jpg"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(ctx, stored.Key))
}

func TestLocalStoreKeepsKeysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(filepath.Join(root, "blobs"), "/uploads")
	require.NoError(t, err)

	stored, err := store.Put(context.Background(), Object{Key: "../../escape.txt", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "escape.txt", stored.Key)
	_, err = os.Stat(filepath.Join(root, "blobs", "escape.txt"))
	assert.NoError(t, err)

	_, err = store.Put(context.Background(), Object{Key: "", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

type fakeS3 struct {
	puts    map[string][]byte
	deleted []string
	putErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{puts: map[string][]byte{}}
	store := newS3Store(fake, "parcels", "http://minio:9000/parcels/")

	stored, err := store.Put(ctx, Object{Key: "parcels/7/out-x.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/parcels/parcels/7/out-x.png", stored.URL)
	assert.Equal(t, []byte("png"), fake.puts["parcels/parcels/7/out-x.png"])

	require.NoError(t, store.Delete(ctx, stored.Key))
	assert.Equal(t, []string{"parcels/7/out-x.png"}, fake.deleted)
	assert.NoError(t, store.Ping(ctx))

	fake.putErr = errors.New("bucket gone")
	_, err = store.Put(ctx, Object{Key: "k", Data: []byte("x")})
	assert.ErrorContains(t, err, "bucket gone")
}

func TestNewSelectsDriver(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{Driver: config.StorageDriverLocal, LocalDir: t.TempDir(), PublicBaseURL: "/uploads"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
