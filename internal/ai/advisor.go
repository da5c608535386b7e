package ai

import (
	"context"

	"github.com/spigell/catalog-assets/internal/catalog"
)

// Suggestion is an advisor's pick of one candidate image for a product.
type Suggestion struct {
	File       string
	Confidence float64
	Reason     string
	Raw        string
}

// Advisor proposes an image for products the filename heuristic could not match.
// An empty File means the advisor found nothing suitable.
type Advisor interface {
	Suggest(ctx context.Context, product *catalog.Product, candidates []string) (*Suggestion, error)
}
