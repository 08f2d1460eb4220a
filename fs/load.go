package fs

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/blueprint"
)

// DefaultImageMimeType is used when an image's type cannot be determined.
const DefaultImageMimeType = "image/jpeg"

// LoadText reads a required text file. The content is trimmed; a missing or
// blank file is an error naming the path.
func LoadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("fs: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", fmt.Errorf("fs: %s: %w", path, blueprint.ErrEmptyFile)
	}
	return content, nil
}

// LoadJSON reads a required JSON document and returns its trimmed text.
func LoadJSON(path string) (string, error) {
	content, err := LoadText(path)
	if err != nil {
		return "", err
	}
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return "", fmt.Errorf("fs: %s: %w: %v", path, blueprint.ErrInvalidInput, err)
	}
	return content, nil
}

// LoadMaterials reads every material map matching pattern, which may use **
// for recursive matching. The first line of each file is a header and is
// skipped; every following line of the form key=name contributes its key.
// Keys are returned in file order without duplicates.
func LoadMaterials(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, fmt.Errorf("fs: invalid material pattern %q: %w", pattern, blueprint.ErrInvalidInput)
	}
	paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("fs: match %s: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("fs: no material map matches %s: %w", pattern, os.ErrNotExist)
	}
	sort.Strings(paths)

	seen := make(map[string]bool)
	var keys []string
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("fs: %w", err)
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		header := true
		for sc.Scan() {
			if header {
				header = false
				continue
			}
			key, _, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" || seen[key] {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("fs: read %s: %w", p, err)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("fs: no material entries in %s: %w", pattern, blueprint.ErrEmptyFile)
	}
	return keys, nil
}

// LoadImage reads a reference image. The mime type comes from the file
// extension, then from the content, and defaults to DefaultImageMimeType.
func LoadImage(path string) (*blueprint.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fs: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("fs: %s: %w", path, blueprint.ErrEmptyFile)
	}
	return &blueprint.Image{Path: path, Data: data, MimeType: imageMimeType(path, data)}, nil
}

func imageMimeType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "image/") {
		mt, _, _ := strings.Cut(t, ";")
		return mt
	}
	if t := http.DetectContentType(data); strings.HasPrefix(t, "image/") {
		return t
	}
	return DefaultImageMimeType
}
