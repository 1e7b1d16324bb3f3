package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bizscan/internal/common"
)

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "b.png"), []byte("png"))
	write(t, filepath.Join(root, "a.JPG"), []byte("jpg"))
	write(t, filepath.Join(root, "notes.txt"), []byte("txt"))
	write(t, filepath.Join(root, "empty.webp"), nil)
	write(t, filepath.Join(root, ".hidden", "c.jpg"), []byte("c"))
	write(t, filepath.Join(root, "sub", "d.jpeg"), []byte("d"))

	files, failures, stats, err := ScanDirectory(t.Context(), root, true, 0, nil)
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"a.JPG", "b.png", "sub/d.jpeg"}, names)
	assert.Equal(t, "image/jpeg", files[0].MIME)
	assert.Equal(t, "image/png", files[1].MIME)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Path, "empty.webp")
	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(3), stats.Read)
	assert.Equal(t, uint32(1), stats.Failed)
}

func TestScanDirectory_SameBaseNameInSubdirs(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "day1", "IMG_0001.jpg"), []byte("one"))
	write(t, filepath.Join(root, "day2", "IMG_0001.jpg"), []byte("two"))

	files, _, _, err := ScanDirectory(t.Context(), root, true, 0, nil)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, "day1/IMG_0001.jpg", files[0].Name)
	assert.Equal(t, "day2/IMG_0001.jpg", files[1].Name)
}

func TestScanDirectory_RequiresRoot(t *testing.T) {
	_, _, _, err := ScanDirectory(t.Context(), " ", true, 0, nil)
	assert.Error(t, err)
}

func TestFromUpload(t *testing.T) {
	f, err := FromUpload("dir/scan.webp", []byte("x"), 10)
	require.NoError(t, err)
	assert.Equal(t, "scan.webp", f.Name)
	assert.Equal(t, "image/webp", f.MIME)

	_, err = FromUpload("scan.pdf", []byte("x"), 0)
	assert.ErrorIs(t, err, ErrUnsupportedExt)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.True(t, IsRejected(err))

	_, err = FromUpload("scan.png", nil, 0)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = FromUpload("scan.png", []byte("12345"), 4)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestAllowedExtAndHidden(t *testing.T) {
	assert.True(t, AllowedExt(".JPEG"))
	assert.True(t, AllowedExt("webp"))
	assert.False(t, AllowedExt(".gif"))
	assert.True(t, IsHidden("/a/.git"))
	assert.False(t, IsHidden("/a/b.jpg"))
}

func TestWatch_GroupsNewImages(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	groups, err := Watch(ctx, WatchConfig{Root: dir, Quiet: 200 * time.Millisecond, SkipHidden: true}, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("jpg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.jpg"), []byte("x"), 0o644))

	select {
	case g := <-groups:
		require.Len(t, g, 2)
		assert.Equal(t, "a.jpg", g[0].Name)
		assert.Equal(t, "b.png", g[1].Name)
		assert.Equal(t, []byte("jpg"), g[0].Data)
	case <-time.After(5 * time.Second):
		t.Fatal("no group emitted")
	}

	cancel()
	for range groups {
	}
}

func TestWatch_RequiresRoot(t *testing.T) {
	_, err := Watch(t.Context(), WatchConfig{}, nil)
	assert.Error(t, err)
}
