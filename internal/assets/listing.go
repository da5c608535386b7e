// Package assets lists the image directory that candidate files are drawn from.
package assets

import (
	"fmt"
	iofs "io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

var (
	imagePattern       = regexp.MustCompile(`(?i)\.(jpe?g|png|webp)$`)
	placeholderPattern = regexp.MustCompile(`(?i)^logo2?\.`)
)

// Entry is a single directory entry.
type Entry struct {
	Name string
	Mode iofs.FileMode
}

func (e Entry) IsDir() bool { return e.Mode.IsDir() }

func (e Entry) IsFile() bool { return e.Mode.IsRegular() }

// Listing is the ordered, non-recursive content of a directory.
type Listing struct {
	Dir     string
	Entries []Entry
}

// Scan lists dir without descending into subdirectories. Entries come back in
// the order the filesystem reports them, which for afero is sorted by name.
func Scan(fs afero.Fs, dir string) (*Listing, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading assets directory %q: %w", dir, err)
	}

	listing := &Listing{
		Dir:     dir,
		Entries: make([]Entry, 0, len(infos)),
	}
	for _, info := range infos {
		listing.Entries = append(listing.Entries, Entry{Name: info.Name(), Mode: info.Mode()})
	}

	return listing, nil
}

func (l *Listing) Len() int {
	return len(l.Entries)
}

// Names returns entry names in listing order.
func (l *Listing) Names() []string {
	names := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		names = append(names, e.Name)
	}
	return names
}

// Contains reports whether a non-directory entry called name is listed.
func (l *Listing) Contains(name string) bool {
	for _, e := range l.Entries {
		if e.Name == name && !e.IsDir() {
			return true
		}
	}
	return false
}

// HasDir reports whether the listing includes a directory called name.
func (l *Listing) HasDir(name string) bool {
	for _, e := range l.Entries {
		if e.Name == name && e.IsDir() {
			return true
		}
	}
	return false
}

// Keep drops every entry for which keep returns false and returns the names of
// the dropped entries. Order of the kept entries is preserved.
func (l *Listing) Keep(keep func(Entry) bool) []string {
	var dropped []string
	kept := l.Entries[:0]
	for _, e := range l.Entries {
		if keep(e) {
			kept = append(kept, e)
			continue
		}
		dropped = append(dropped, e.Name)
	}
	l.Entries = kept
	return dropped
}

// IsImage reports whether name has one of the recognised image extensions.
func IsImage(name string) bool {
	return imagePattern.MatchString(name)
}

// IsPlaceholder reports whether name is one of the storefront logo files.
func IsPlaceholder(name string) bool {
	return placeholderPattern.MatchString(name)
}

// BaseName strips the last extension from name.
func BaseName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
