package ingestion

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/soundprediction/graphista/pkg/types"
)

// textExtensions are the file types read as plain text. Anything else in
// the source folder is skipped.
var textExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
	".text":     {},
}

// Ingestor lists source documents and loads their raw text.
type Ingestor interface {
	ListFiles() ([]string, error)
	LoadDocument(path string, version int) (*types.Document, error)
}

// LocalIngestor reads documents from a local folder tree. The immediate
// parent folder name becomes a metadata tag.
type LocalIngestor struct {
	folder string
}

// NewLocalIngestor creates a LocalIngestor rooted at folder.
func NewLocalIngestor(folder string) *LocalIngestor {
	return &LocalIngestor{folder: folder}
}

// ListFiles walks the source folder and returns every readable text file.
func (l *LocalIngestor) ListFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(l.folder, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := textExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list source files: %w", err)
	}
	return files, nil
}

// LoadDocument reads one file into a Document with folder-derived metadata.
func (l *LocalIngestor) LoadDocument(path string, version int) (*types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc := &types.Document{
		Filename: filepath.Base(path),
		Version:  version,
		Source:   path,
		Text:     string(data),
	}
	if folder := filepath.Base(filepath.Dir(path)); folder != "." && folder != string(filepath.Separator) {
		doc.Metadata = map[string]interface{}{"folder": strings.ToLower(folder)}
	}
	return doc, nil
}
