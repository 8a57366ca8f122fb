package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Files maps document names to their file names inside a data directory.
var Files = map[string]string{
	DocArticles: "articles.json",
	DocPallet:   "pallet_rates_by_region.json",
	DocGroupage: "groupage_rates.json",
	DocGeo:      "geo.json",
}

// FileLoader reads the dataset from JSON files in Dir.
type FileLoader struct {
	Dir string
}

func NewFileLoader(dir string) *FileLoader { return &FileLoader{Dir: dir} }

func (l *FileLoader) Load(ctx context.Context) (*Dataset, error) {
	docs := make(map[string][]byte, len(Files))
	for name, file := range Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(l.Dir, file)
		b, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		docs[name] = b
	}
	return decode(docs)
}
