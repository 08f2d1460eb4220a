package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadText(t *testing.T) {
	t.Parallel()

	t.Run("trims content", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "style.txt")
		writeFile(t, path, "\n  Describe {user_input}\n\n")
		got, err := fs.LoadText(path)
		require.NoError(t, err)
		assert.Equal(t, "Describe {user_input}", got)
	})

	t.Run("missing file names the path", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nope.txt")
		_, err := fs.LoadText(path)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("blank file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "blank.txt")
		writeFile(t, path, " \n\t")
		_, err := fs.LoadText(path)
		assert.ErrorIs(t, err, blueprint.ErrEmptyFile)
		assert.Contains(t, err.Error(), path)
	})
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "structure.json")
		writeFile(t, path, `{"rooms": ["A", "B"]}`+"\n")
		got, err := fs.LoadJSON(path)
		require.NoError(t, err)
		assert.Equal(t, `{"rooms": ["A", "B"]}`, got)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "broken.json")
		writeFile(t, path, `{"rooms": [`)
		_, err := fs.LoadJSON(path)
		assert.ErrorIs(t, err, blueprint.ErrInvalidInput)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "empty.json")
		writeFile(t, path, "")
		_, err := fs.LoadJSON(path)
		assert.ErrorIs(t, err, blueprint.ErrEmptyFile)
	})
}

func TestLoadMaterials(t *testing.T) {
	t.Parallel()

	t.Run("skips header and keeps keys", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "materials.txt"),
			"id=name\nOAK_PLANKS=Oak Planks\n\nGLASS = Glass\nnot a mapping\nSTONE=Stone\n")
		got, err := fs.LoadMaterials(filepath.Join(dir, "materials.txt"))
		require.NoError(t, err)
		assert.Equal(t, []string{"OAK_PLANKS", "GLASS", "STONE"}, got)
	})

	t.Run("header line is skipped even when it is a mapping", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "m.txt"), "BRICK=Brick\nSAND=Sand")
		got, err := fs.LoadMaterials(filepath.Join(dir, "m.txt"))
		require.NoError(t, err)
		assert.Equal(t, []string{"SAND"}, got)
	})

	t.Run("recursive pattern merges files without duplicates", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a", "base.txt"), "header\nOAK=Oak\nGLASS=Glass")
		writeFile(t, filepath.Join(dir, "b", "deep", "extra.txt"), "header\nGLASS=Glass\nWOOL=Wool")
		writeFile(t, filepath.Join(dir, "b", "notes.md"), "header\nIGNORED=x")
		got, err := fs.LoadMaterials(filepath.Join(dir, "**", "*.txt"))
		require.NoError(t, err)
		assert.Equal(t, []string{"OAK", "GLASS", "WOOL"}, got)
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		_, err := fs.LoadMaterials(filepath.Join(t.TempDir(), "*.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("no entries", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "m.txt"), "header only")
		_, err := fs.LoadMaterials(filepath.Join(dir, "m.txt"))
		assert.ErrorIs(t, err, blueprint.ErrEmptyFile)
	})
}

func TestLoadImage(t *testing.T) {
	t.Parallel()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	t.Run("mime from extension", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "ref.png")
		writeFile(t, path, string(png))
		img, err := fs.LoadImage(path)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)
		assert.Equal(t, png, img.Data)
		assert.Equal(t, path, img.Path)
	})

	t.Run("mime from content", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "ref.bin")
		writeFile(t, path, string(png))
		img, err := fs.LoadImage(path)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)
	})

	t.Run("unknown defaults to jpeg", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "ref")
		writeFile(t, path, "not really an image")
		img, err := fs.LoadImage(path)
		require.NoError(t, err)
		assert.Equal(t, fs.DefaultImageMimeType, img.MimeType)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := fs.LoadImage(filepath.Join(t.TempDir(), "gone.jpg"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
