package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/catalog-assets/internal/assets"
)

// DefaultReservedDir holds images waiting to be recovered. It is never scanned.
const DefaultReservedDir = "para_recuperar"

type filesOnlyFilter struct {
	reservedDir string
	sawReserved bool
}

// NewFilesOnly creates a filter that drops directories and other non-regular entries.
func NewFilesOnly(reservedDir string) Filter {
	reservedDir = strings.TrimSpace(reservedDir)
	if reservedDir == "" {
		reservedDir = DefaultReservedDir
	}
	return &filesOnlyFilter{reservedDir: reservedDir}
}

func (f *filesOnlyFilter) Name() string { return "files_only" }

func (f *filesOnlyFilter) Disable(string) {}

func (f *filesOnlyFilter) IsEnabled() bool { return true }

func (f *filesOnlyFilter) Apply(_ context.Context, deps Deps, l *assets.Listing) (*assets.Listing, Step, error) {
	initial := l.Len()
	f.sawReserved = l.HasDir(f.reservedDir)

	dropped := l.Keep(func(e assets.Entry) bool { return e.IsFile() })

	if f.sawReserved && deps.Logger != nil {
		deps.Logger.Info("ignoring reserved directory",
			zap.String("dir", l.Dir),
			zap.String("reserved", f.reservedDir),
		)
	}

	return l, Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}

func (f *filesOnlyFilter) Status() Status {
	details := map[string]string{"reserved_dir": f.reservedDir}
	if f.sawReserved {
		details["reserved_dir_present"] = "true"
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
