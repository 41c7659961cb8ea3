package notes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	// Touch file if not exists
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) Append(userID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.loadUnlocked()
	key := strconv.FormatInt(userID, 10)
	doc[key] = append(doc[key], text)
	return r.saveUnlocked(doc)
}

func (r *FileRepository) List(userID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.loadUnlocked()
	return doc[strconv.FormatInt(userID, 10)], nil
}

// loadUnlocked reads the whole document. A missing, empty or malformed
// file starts fresh rather than failing.
func (r *FileRepository) loadUnlocked() map[string][]string {
	doc := make(map[string][]string)
	f, err := os.Open(r.path)
	if err != nil {
		return doc
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	dec := json.NewDecoder(f)
	if err := dec.Decode(&doc); err != nil {
		return make(map[string][]string)
	}
	return doc
}

func (r *FileRepository) saveUnlocked(doc map[string][]string) error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open write: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
