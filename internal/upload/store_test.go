package upload

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{1,4}-cat\.png$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, pattern, FileName("cat.png"))
	}
}

func TestFileNameStripsDirectories(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd":     "passwd",
		`C:\Users\me\cat.jpg`:  "cat.jpg",
		"":                     "upload",
		"/":                    "upload",
		"nested/dir/photo.png": "photo.png",
	}
	for in, want := range tests {
		got := FileName(in)
		assert.True(t, strings.HasSuffix(got, "-"+want), "FileName(%q) = %q", in, got)
	}
}

func TestDiskStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	store, err := NewDiskStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	file, err := store.Save("image", "cat.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "image", file.Field)
	assert.Equal(t, "cat.png", file.OriginalName)
	assert.Equal(t, "image/png", file.MimeType)
	assert.Equal(t, int64(len("png-bytes")), file.Size)
	assert.Equal(t, filepath.Join(dir, file.FileName), file.Path)
	assert.Equal(t, "images/"+file.FileName, file.URL)

	content, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
}
