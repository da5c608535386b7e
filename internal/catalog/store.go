package catalog

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

const defaultFileMode os.FileMode = 0o644

// Store reads and writes a catalog file on a filesystem.
type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() (*Catalog, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %q: %w", s.path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %q: %w", s.path, err)
	}
	return c, nil
}

// Save replaces the catalog file. The new content is written to a sibling
// temporary file first and renamed over the original.
func (s *Store) Save(c *Catalog) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}

	mode := defaultFileMode
	if info, err := s.fs.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, mode); err != nil {
		return fmt.Errorf("writing catalog %q: %w", tmp, err)
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replacing catalog %q: %w", s.path, err)
	}

	return nil
}
