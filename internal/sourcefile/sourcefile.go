// Package sourcefile loads ECMAScript-family source files for the CLI and
// decides which paths the engine should touch.
package sourcefile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/src-d/enry/v2"
)

// ErrTooLarge is returned when a source exceeds the configured size limit.
var ErrTooLarge = errors.New("source too large")

// languages are the enry language names handled by the scanner.
var languages = []string{"JavaScript", "TypeScript", "TSX", "JSX", "Vue", "Svelte"}

// Load reads the file at name. A positive maxSize rejects larger files with
// [ErrTooLarge].
func Load(name string, maxSize uint64) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	return Read(f, name, maxSize)
}

// Read drains r, enforcing maxSize the same way [Load] does. name only
// labels errors.
func Read(r io.Reader, name string, maxSize uint64) ([]byte, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, int64(maxSize)+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if maxSize > 0 && uint64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, name, humanize.IBytes(maxSize))
	}

	return data, nil
}

// Supported reports whether name should be processed. The extension list is
// consulted first; unknown extensions fall back to language detection on the
// file name and, when given, its contents.
func Supported(name string, data []byte, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" && slices.Contains(exts, ext) {
		return true
	}

	lang := enry.GetLanguage(path.Base(filepath.ToSlash(name)), nil)
	if lang == "" && len(data) > 0 {
		lang = enry.GetLanguage(path.Base(filepath.ToSlash(name)), data)
	}

	return slices.Contains(languages, lang)
}

// Collect expands roots into the list of files to process. Directories are
// walked recursively, vendored trees (node_modules, bower_components, ...)
// are skipped, and only files with one of exts are kept. Explicit file
// arguments are always kept.
func Collect(roots, exts []string) ([]string, error) {
	var files []string

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			files = append(files, root)

			continue
		}

		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if d.IsDir() {
				rel, relErr := filepath.Rel(root, p)
				if relErr != nil {
					return relErr
				}

				if rel != "." && enry.IsVendor(filepath.ToSlash(rel)+"/") {
					return filepath.SkipDir
				}

				return nil
			}

			if slices.Contains(exts, strings.ToLower(filepath.Ext(p))) {
				files = append(files, p)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	return files, nil
}
