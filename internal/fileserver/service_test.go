package fileserver

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndOpen(t *testing.T) {
	svc := New(t.TempDir(), 1<<20, "/api/chat/files")

	url, err := svc.Store(strings.NewReader("image-bytes"), ".PNG")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/api/chat/files/"))
	name := strings.TrimPrefix(url, "/api/chat/files/")
	assert.True(t, strings.HasSuffix(name, ".png"))

	f, err := svc.Open(name)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
}

func TestStoreRefusesBlockedExtensions(t *testing.T) {
	svc := New(t.TempDir(), 1<<20, "/api/chat/files")

	for _, ext := range []string{".exe", ".sh", "js", ".PHP"} {
		_, err := svc.Store(strings.NewReader("payload"), ext)
		assert.Error(t, err, "extension %s must be refused", ext)
	}
}

func TestStoreRefusesRenamedExecutables(t *testing.T) {
	svc := New(t.TempDir(), 1<<20, "/files")

	_, err := svc.Store(strings.NewReader("\x7fELF\x02\x01\x01"), ".png")
	assert.Error(t, err)
	_, err = svc.Store(strings.NewReader("MZ\x90\x00"), ".jpg")
	assert.Error(t, err)
}

func TestStoreGeneratesUniqueNames(t *testing.T) {
	svc := New(t.TempDir(), 1<<20, "/files")

	a, err := svc.Store(strings.NewReader("one"), ".txt")
	require.NoError(t, err)
	b, err := svc.Store(strings.NewReader("two"), ".txt")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenNeverLeavesUploadDir(t *testing.T) {
	dir := t.TempDir()
	svc := New(filepath.Join(dir, "uploads"), 1<<20, "/files")
	require.NoError(t, os.MkdirAll(svc.UploadDir, 0o755))
	secret := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("nope"), 0o600))

	_, err := svc.Open("../secret.txt")
	assert.Error(t, err)
}
