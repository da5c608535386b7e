// Package matcher pairs catalog products with candidate image files.
//
// A run goes through three phases: the caller scans the image directory, the
// matcher scores every eligible product against the candidates (Propose), and
// the accepted proposals are applied to the in-memory catalog (Apply). Saving
// the catalog is left to the caller so that nothing is written before scoring
// has finished.
package matcher

import (
	"context"
	"errors"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/catalog-assets/internal/ai"
	"github.com/spigell/catalog-assets/internal/catalog"
	"github.com/spigell/catalog-assets/internal/logger"
)

// DefaultPublicPrefix is the path under which the storefront serves images.
const DefaultPublicPrefix = "assets"

// Source tells where a proposal came from.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceAI        Source = "ai"
)

// Options tune a matcher run.
type Options struct {
	// Overwrite makes products that already have an image eligible again.
	Overwrite bool
	// PublicPrefix is joined with the chosen filename to form the image path.
	PublicPrefix string
	// MinimumConfidence is the lowest advisor confidence that is accepted.
	MinimumConfidence float64
}

// Proposal is the image chosen for one product during a run.
type Proposal struct {
	Index       int
	ProductID   catalog.ID
	ProductName string
	Previous    string
	File        string
	Path        string
	Score       float64
	Source      Source
	Reason      string
}

// Unmatched is a product for which no candidate scored positively.
type Unmatched struct {
	Index       int
	ProductID   catalog.ID
	ProductName string
}

// Report collects the outcome of Propose.
type Report struct {
	Proposals []Proposal
	Unmatched []Unmatched
	Skipped   int
}

type Matcher struct {
	opts    Options
	advisor ai.Advisor
	logger  *zap.Logger
}

// New creates a matcher. advisor may be nil.
func New(opts Options, advisor ai.Advisor, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PublicPrefix == "" {
		opts.PublicPrefix = DefaultPublicPrefix
	}
	if opts.MinimumConfidence < 0 {
		opts.MinimumConfidence = 0
	}

	return &Matcher{opts: opts, advisor: advisor, logger: log}
}

// Propose picks the best candidate file for every eligible product of c. The
// catalog is not modified.
func (m *Matcher) Propose(ctx context.Context, c *catalog.Catalog, files []string) (*Report, error) {
	report := &Report{}

	for idx, p := range c.Products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !m.opts.Overwrite && p.HasImage() {
			report.Skipped++
			continue
		}

		log := logger.WithProduct(m.logger, p.ID.String(), p.Name)

		candidates := Rank(files, p)
		if len(candidates) > 0 {
			best := candidates[0]
			proposal := m.proposal(idx, p, best.File, best.Score, SourceHeuristic)

			log.Info("candidate found",
				zap.String("file", best.File),
				zap.Float64("score", best.Score),
				zap.Int("alternatives", len(candidates)-1),
			)
			if proposal.Previous != "" {
				log.Info("would replace existing image", zap.String("previous", proposal.Previous))
			}

			report.Proposals = append(report.Proposals, proposal)
			continue
		}

		if proposal, ok := m.advise(ctx, log, idx, p, files); ok {
			report.Proposals = append(report.Proposals, proposal)
			continue
		}

		log.Info("no match")
		report.Unmatched = append(report.Unmatched, Unmatched{Index: idx, ProductID: p.ID, ProductName: p.Name})
	}

	return report, nil
}

func (m *Matcher) advise(ctx context.Context, log *zap.Logger, idx int, p *catalog.Product, files []string) (Proposal, bool) {
	if m.advisor == nil || len(files) == 0 {
		return Proposal{}, false
	}

	suggestion, err := m.advisor.Suggest(ctx, p, files)
	if err != nil {
		log.Warn("AI suggestion failed", zap.Error(err))
		return Proposal{}, false
	}

	if suggestion == nil || strings.TrimSpace(suggestion.File) == "" {
		log.Debug("AI advisor found nothing")
		return Proposal{}, false
	}

	if !contains(files, suggestion.File) {
		log.Warn("AI suggested an unknown file", zap.String("file", suggestion.File))
		return Proposal{}, false
	}

	if suggestion.Confidence < m.opts.MinimumConfidence {
		log.Info("AI suggestion below confidence threshold",
			zap.String("file", suggestion.File),
			zap.Float64("confidence", suggestion.Confidence),
			zap.Float64("threshold", m.opts.MinimumConfidence),
		)
		return Proposal{}, false
	}

	proposal := m.proposal(idx, p, suggestion.File, suggestion.Confidence, SourceAI)
	proposal.Reason = suggestion.Reason

	log.Info("candidate suggested by AI",
		zap.String("file", suggestion.File),
		zap.Float64("confidence", suggestion.Confidence),
		zap.String("reason", suggestion.Reason),
	)

	return proposal, true
}

func (m *Matcher) proposal(idx int, p *catalog.Product, file string, score float64, source Source) Proposal {
	return Proposal{
		Index:       idx,
		ProductID:   p.ID,
		ProductName: p.Name,
		Previous:    strings.TrimSpace(p.Image),
		File:        file,
		Path:        path.Join(m.opts.PublicPrefix, strings.ReplaceAll(file, `\`, "/")),
		Score:       score,
		Source:      source,
	}
}

// ErrStop can be returned by an Acceptor to reject the proposal and every one
// after it.
var ErrStop = errors.New("stop reviewing proposals")

// Acceptor decides whether a proposal is applied.
type Acceptor interface {
	Accept(p Proposal) (bool, error)
}

// AcceptorFunc adapts a function to the Acceptor interface.
type AcceptorFunc func(p Proposal) (bool, error)

func (f AcceptorFunc) Accept(p Proposal) (bool, error) { return f(p) }

// AcceptAll applies every proposal.
var AcceptAll Acceptor = AcceptorFunc(func(Proposal) (bool, error) { return true, nil })

// Apply writes the accepted proposals of r into c and returns how many were
// applied. Records whose image does not change are not touched.
func (m *Matcher) Apply(c *catalog.Catalog, r *Report, acceptor Acceptor) (int, error) {
	if acceptor == nil {
		acceptor = AcceptAll
	}

	applied := 0
	for _, proposal := range r.Proposals {
		ok, err := acceptor.Accept(proposal)
		if errors.Is(err, ErrStop) {
			m.logger.Info("review stopped", zap.Int("applied", applied))
			break
		}
		if err != nil {
			return applied, err
		}

		log := logger.WithProduct(m.logger, proposal.ProductID.String(), proposal.ProductName)
		if !ok {
			log.Info("proposal rejected", zap.String("file", proposal.File))
			continue
		}

		if proposal.Previous == proposal.Path {
			log.Debug("image unchanged", zap.String("path", proposal.Path))
			continue
		}

		if err := c.SetImage(proposal.Index, proposal.Path); err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}

func contains(files []string, name string) bool {
	for _, f := range files {
		if f == name {
			return true
		}
	}
	return false
}
