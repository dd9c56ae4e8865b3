package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/infrastructure/config"
)

type fakeDeleter struct {
	keys []string
	err  error
}

func (f *fakeDeleter) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr error
	}{
		{
			name: "public object url",
			url:  "https://x.supabase.co/storage/v1/object/public/task-assets/report.png",
			want: "report.png",
		},
		{
			name: "nested key with encoded space",
			url:  "https://cdn.example.com/task-assets/user_1/My%20File.pdf",
			want: "user_1/My File.pdf",
		},
		{
			name: "encoded slash stays part of the key",
			url:  "https://cdn.example.com/task-assets/a%2Fb.txt",
			want: "a/b.txt",
		},
		{
			name:    "other bucket",
			url:     "https://cdn.example.com/avatars/me.png",
			wantErr: ErrForeignURL,
		},
		{
			name:    "bucket without key",
			url:     "https://cdn.example.com/task-assets/",
			wantErr: ErrForeignURL,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyFromURL(tt.url, "task-assets")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3BlobStore_DeleteByURL(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the decoded key", func(t *testing.T) {
		fake := &fakeDeleter{}
		store := newS3BlobStore(fake, "task-assets")
		require.NoError(t, store.DeleteByURL(ctx, "https://cdn.example.com/task-assets/a%20b.png"))
		assert.Equal(t, []string{"a b.png"}, fake.keys)
	})

	t.Run("foreign url is rejected without a call", func(t *testing.T) {
		fake := &fakeDeleter{}
		store := newS3BlobStore(fake, "task-assets")
		assert.ErrorIs(t, store.DeleteByURL(ctx, "https://elsewhere.com/x.png"), ErrForeignURL)
		assert.Empty(t, fake.keys)
	})

	t.Run("client failure is wrapped", func(t *testing.T) {
		store := newS3BlobStore(&fakeDeleter{err: errors.New("access denied")}, "task-assets")
		err := store.DeleteByURL(ctx, "https://cdn.example.com/task-assets/x.png")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
	})
}

func TestNewS3BlobStore_RequiresBucket(t *testing.T) {
	_, err := NewS3BlobStore(context.Background(), &config.StorageConfig{})
	assert.Error(t, err)

	_, err = NewS3BlobStore(context.Background(), nil)
	assert.Error(t, err)
}

func TestDisabledStore(t *testing.T) {
	assert.NoError(t, DisabledStore{}.DeleteByURL(context.Background(), "https://x/task-assets/y"))
}
