package filtering

import (
	"context"

	"github.com/spigell/catalog-assets/internal/assets"
)

type imageExtensionFilter struct{}

// NewImageExtension creates a filter that keeps jpg, jpeg, png and webp files.
func NewImageExtension() Filter {
	return &imageExtensionFilter{}
}

func (f *imageExtensionFilter) Name() string { return "image_extension" }

func (f *imageExtensionFilter) Disable(string) {}

func (f *imageExtensionFilter) IsEnabled() bool { return true }

func (f *imageExtensionFilter) Apply(_ context.Context, _ Deps, l *assets.Listing) (*assets.Listing, Step, error) {
	initial := l.Len()
	dropped := l.Keep(func(e assets.Entry) bool { return assets.IsImage(e.Name) })

	return l, Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}
