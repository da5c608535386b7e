package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/catalog-assets/internal/assets"
)

type placeholderFilter struct {
	disabled bool
	reason   string
}

// NewPlaceholder creates a filter that removes the storefront logo images.
func NewPlaceholder() Filter {
	return &placeholderFilter{}
}

func (f *placeholderFilter) Name() string { return "placeholder" }

func (f *placeholderFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *placeholderFilter) IsEnabled() bool { return !f.disabled }

func (f *placeholderFilter) Apply(_ context.Context, deps Deps, l *assets.Listing) (*assets.Listing, Step, error) {
	initial := l.Len()
	dropped := l.Keep(func(e assets.Entry) bool { return !assets.IsPlaceholder(e.Name) })

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding placeholder images", zap.Strings("files", dropped))
	}

	return l, Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}

func (f *placeholderFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
