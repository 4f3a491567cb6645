package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/config"
	"github.com/gymsite/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configFor(storageType string) config.StorageConfig {
	return config.StorageConfig{Type: storageType, BasePath: "public"}
}

// mockS3 is a mock implementation of s3API and uploader
type mockS3 struct {
	objects   map[string]string
	types     map[string]string
	uploadErr error
	deleteErr error
	headErr   error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: map[string]string{}, types: map[string]string{}}
}

func (m *mockS3) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(input.Key)
	m.objects[key] = string(data)
	m.types[key] = aws.ToString(input.ContentType)
	return &manager.UploadOutput{Key: input.Key}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	delete(m.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	if _, ok := m.objects[aws.ToString(params.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Storage_SaveExistsDelete(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	s := newS3Storage(mock, mock, "gym-media", "site", "https://cdn.gym.io")

	ref, size, err := s.Save(ctx, strings.NewReader("video-bytes"), "Clip.MOV", "video/quicktime", models.MediaKindVideo)
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)
	assert.True(t, strings.HasPrefix(ref, "videos/"))
	assert.True(t, strings.HasSuffix(ref, ".mov"))

	key := "site/" + ref
	assert.Equal(t, "video-bytes", mock.objects[key])
	assert.Equal(t, "video/quicktime", mock.types[key])
	assert.Equal(t, "https://cdn.gym.io/"+key, s.URL(ref))

	ok, err := s.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, ref))
	ok, err = s.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3Storage_NoPrefix(t *testing.T) {
	mock := newMockS3()
	s := newS3Storage(mock, mock, "b", "", "https://b.s3.eu-central-1.amazonaws.com")
	assert.Equal(t, "https://b.s3.eu-central-1.amazonaws.com/images/gallery/x.jpg", s.URL("images/gallery/x.jpg"))
}

func TestS3Storage_Errors(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	mock.uploadErr = errors.New("timeout")
	mock.deleteErr = errors.New("access denied")
	mock.headErr = errors.New("throttled")
	s := newS3Storage(mock, mock, "b", "", "https://cdn")

	_, _, err := s.Save(ctx, strings.NewReader("x"), "a.png", "image/png", models.MediaKindImage)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)

	assert.ErrorIs(t, s.Delete(ctx, "images/gallery/a.png"), apperrors.ErrStorageUnavailable)

	_, err = s.Exists(ctx, "images/gallery/a.png")
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
}
