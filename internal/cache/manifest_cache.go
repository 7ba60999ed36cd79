package cache

import (
	"os"
	"path/filepath"
)

// FileCache implements remote.ManifestCache
type FileCache struct {
	Dir string
}

func (f *FileCache) Get(key string) ([]byte, error) {
	// We use the key as the filename
	return os.ReadFile(filepath.Join(f.Dir, key+".json"))
}

func (f *FileCache) Put(key string, data []byte) error {
	// Ensure the directory exists
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.Dir, key+".json"), data, 0644)
}

func (f *FileCache) Exists(key string) bool {
	_, err := os.Stat(filepath.Join(f.Dir, key+".json"))
	return err == nil
}
