package matcher

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spigell/catalog-assets/internal/assets"
	"github.com/spigell/catalog-assets/internal/catalog"
	"github.com/spigell/catalog-assets/internal/slug"
)

// Rule weights. Rules are additive.
const (
	// ScoreID is granted when the filename starts with the product identifier.
	ScoreID = 100.0
	// ScoreNameColor is granted when the filename starts with <name>-<color>.
	ScoreNameColor = 50.0
	// ScoreName is granted when the filename starts with the product name.
	ScoreName = 25.0

	// LengthPenaltyFree is the base name length that carries no penalty.
	LengthPenaltyFree = 30
	// LengthPenaltyStep is the number of extra characters costing one point.
	LengthPenaltyStep = 5.0
	// MaxLengthPenalty caps the length penalty.
	MaxLengthPenalty = 10.0
)

// Candidate is a scored image file.
type Candidate struct {
	File  string
	Base  string
	Score float64
}

// Score rates how well the extension-less filename base fits a product. Scores
// of zero or below mean the file is not a candidate. An empty id or name slug
// disables the rules built on it.
func Score(base, id, nameSlug, colorSlug string) float64 {
	score := 0.0

	if id != "" && (base == id ||
		strings.HasPrefix(base, id+"-") ||
		strings.HasPrefix(base, id+"_") ||
		strings.HasPrefix(base, "id"+id+"-") ||
		strings.HasPrefix(base, "product-"+id) ||
		strings.HasPrefix(base, "producto-"+id)) {
		score += ScoreID
	}

	if nameSlug != "" && colorSlug != "" {
		nameColor := nameSlug + "-" + colorSlug
		if base == nameColor || strings.HasPrefix(base, nameColor+"-") {
			score += ScoreNameColor
		}
	}

	if nameSlug != "" && (base == nameSlug ||
		strings.HasPrefix(base, nameSlug+"-") ||
		strings.HasPrefix(base, nameSlug+"_")) {
		score += ScoreName
	}

	return score - lengthPenalty(base)
}

func lengthPenalty(base string) float64 {
	over := math.Max(0, float64(utf8.RuneCountInString(base)-LengthPenaltyFree))
	return math.Min(MaxLengthPenalty, over/LengthPenaltyStep)
}

// Rank scores every file against p and returns the positive candidates, best
// first. Equal scores keep the order of files.
func Rank(files []string, p *catalog.Product) []Candidate {
	id := strings.TrimSpace(p.ID.String())
	nameSlug := slug.Make(p.Name)
	colorSlug := slug.Make(p.Color)

	candidates := make([]Candidate, 0, len(files))
	for _, file := range files {
		base := assets.BaseName(file)
		score := Score(base, id, nameSlug, colorSlug)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{File: file, Base: base, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}
