package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "/uploads/")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "products/a.png", strings.NewReader("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/products/a.png", url)

	b, err := os.ReadFile(filepath.Join(dir, "products", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(b))

	require.NoError(t, s.Delete(context.Background(), "products/a.png"))
	require.NoError(t, s.Delete(context.Background(), "products/a.png"))
}

func TestLocal_KeyCannotEscapeBase(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(filepath.Join(dir, "base"), "/uploads")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewKey(t *testing.T) {
	k := NewKey("products", "Latte.JPG")
	assert.True(t, strings.HasPrefix(k, "products/"))
	assert.True(t, strings.HasSuffix(k, ".jpg"))
}
