package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// SupportedExtensions lists the file types LoadDocuments reads.
var SupportedExtensions = []string{".txt", ".md", ".markdown"}

// IsSupported reports whether path has a readable extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadDocuments reads every supported file named by paths. Directories are
// walked recursively; unsupported files inside them are skipped, while an
// unsupported file named explicitly is an error. Documents are returned in
// path order so chunk ids are stable across runs.
func LoadDocuments(paths []string) ([]Document, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			if !IsSupported(p) {
				return nil, fmt.Errorf("%s: unsupported file type (want %s)", p, strings.Join(SupportedExtensions, ", "))
			}
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsSupported(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}

	sort.Strings(files)

	docs := make([]Document, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%s: not valid UTF-8 text", f)
		}
		docs = append(docs, Document{Name: filepath.Base(f), Text: string(data)})
	}
	return docs, nil
}
