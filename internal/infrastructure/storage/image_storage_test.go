package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

func TestLocalImageStorage_SaveReadDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalImageStorage(dir, 0, zap.NewNop())
	ctx := context.Background()

	path, err := s.Save(ctx, 42, "Foto Trinca.JPG", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "42/"))
	assert.True(t, strings.HasSuffix(path, ".jpg"))

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(path)))
	require.NoError(t, err)

	content, err := s.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), content)

	other, err := s.Save(ctx, 42, "Foto Trinca.JPG", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.NotEqual(t, path, other, "names never collide")

	require.NoError(t, s.Delete(ctx, path))
	require.NoError(t, s.Delete(ctx, path), "deleting twice is fine")

	_, err = s.Read(ctx, path)
	assert.ErrorIs(t, err, domainwf.ErrNotFound)
}

func TestLocalImageStorage_Rejects(t *testing.T) {
	s := NewLocalImageStorage(t.TempDir(), 4, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name    string
		file    string
		content []byte
	}{
		{name: "empty", file: "a.png", content: nil},
		{name: "too large", file: "a.png", content: []byte("12345")},
		{name: "not an image", file: "a.exe", content: []byte("1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(ctx, 1, tt.file, tt.content)
			assert.ErrorIs(t, err, domainwf.ErrValidation)
		})
	}
}

func TestLocalImageStorage_PathTraversal(t *testing.T) {
	s := NewLocalImageStorage(t.TempDir(), 0, zap.NewNop())
	ctx := context.Background()

	for _, p := range []string{"../secret.png", "1/../../etc/passwd", ""} {
		_, err := s.Read(ctx, p)
		assert.ErrorIs(t, err, domainwf.ErrValidation, p)
		assert.ErrorIs(t, s.Delete(ctx, p), domainwf.ErrValidation, p)
	}
}
