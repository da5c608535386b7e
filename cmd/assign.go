package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spigell/catalog-assets/internal/ai"
	"github.com/spigell/catalog-assets/internal/ai/gemini"
	"github.com/spigell/catalog-assets/internal/assets"
	"github.com/spigell/catalog-assets/internal/catalog"
	"github.com/spigell/catalog-assets/internal/filtering"
	"github.com/spigell/catalog-assets/internal/matcher"
	"github.com/spigell/catalog-assets/internal/secrets"

	"github.com/gofrs/flock"
	"github.com/manifoldco/promptui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptAccept       = "Accept"
	PromptReject       = "Reject"
	PromptAcceptRest   = "Accept all remaining"
	PromptRejectRest   = "Reject all remaining"
	geminiAPIKeyEnvVar = "GEMINI_API_KEY"
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Match product records with image files and fill in their imagen field",
	Long: `assign scans the image directory, scores every file name against the id, name and
color of each product without an image and proposes the best match. Without --write
it only prints the proposals.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return assign(cmd)
	},
}

func init() {
	rootCmd.AddCommand(assignCmd)

	assignCmd.Flags().Bool("write", false, "write accepted proposals into the catalog file")
	assignCmd.Flags().Bool("overwrite", false, "propose images for products that already have one")
	assignCmd.Flags().String("dir", defaultImageDir, "directory holding the product images")
	assignCmd.Flags().BoolP("interactive", "i", false, "review every proposal before it is written (needs --write)")
	assignCmd.Flags().Bool("ai", false, "ask the AI advisor about products without a filename match")
	assignCmd.Flags().Bool("keep-logos", false, "do not drop logo.* and logo2.* from the candidates")

	viper.BindPFlag("dir", assignCmd.Flags().Lookup("dir"))
}

// assignRun holds everything one assign pass needs.
type assignRun struct {
	fs     afero.Fs
	out    io.Writer
	logger *zap.Logger

	catalogPath  string
	lockPath     string
	dir          string
	reservedDir  string
	publicPrefix string

	write     bool
	overwrite bool
	quiet     bool
	keepLogos bool

	advisor       ai.Advisor
	minConfidence float64
	acceptor      matcher.Acceptor
}

func assign(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	config, log, err := setup()
	if err != nil {
		return err
	}

	write, _ := cmd.Flags().GetBool("write")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	interactive, _ := cmd.Flags().GetBool("interactive")
	useAI, _ := cmd.Flags().GetBool("ai")
	keepLogos, _ := cmd.Flags().GetBool("keep-logos")

	run := &assignRun{
		fs:            fs,
		out:           cmd.OutOrStdout(),
		logger:        log,
		catalogPath:   config.JSON,
		lockPath:      config.JSON + ".lock",
		dir:           config.Dir,
		reservedDir:   config.ReservedDir,
		publicPrefix:  config.PublicPrefix,
		write:         write,
		overwrite:     overwrite,
		keepLogos:     keepLogos,
		quiet:         viper.GetBool("quiet"),
		minConfidence: config.AI.MinimumConfidence,
	}

	run.acceptor = chooseAcceptor(interactive, write, log)

	if useAI || config.AI.Enabled {
		advisor, err := newAdvisor(ctx, config.AI, log)
		if err != nil {
			log.Warn("skipping AI advisor", zap.Error(err))
		} else {
			run.advisor = advisor
		}
	}

	_, err = run.run(ctx)
	return err
}

// run executes SCAN, SCORE and then REPORT or WRITE. Nothing is written unless
// the whole scan and scoring succeeded.
func (r *assignRun) run(ctx context.Context) (*matcher.Report, error) {
	if r.write && r.lockPath != "" {
		lock := flock.New(r.lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("catalog %q is being written by another run (lock %s)", r.catalogPath, r.lockPath)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				r.logger.Warn("failed to release catalog lock", zap.Error(err))
			}
		}()
	}

	listing, err := assets.Scan(r.fs, r.dir)
	if err != nil {
		return nil, err
	}

	r.logger.Info("scanned image directory", zap.String("dir", r.dir), zap.Int("entries", listing.Len()))

	steps := filtering.Candidates(r.reservedDir)
	if r.keepLogos {
		filtering.DisableByName(steps, "placeholder", "--keep-logos")
	}

	filtered, err := filtering.Run(ctx, filtering.Deps{Logger: r.logger}, steps, listing)
	if err != nil {
		return nil, fmt.Errorf("filtering images: %w", err)
	}
	files := filtered.Names()

	for _, status := range filtering.Describe(steps) {
		r.logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	store := catalog.NewStore(r.fs, r.catalogPath)
	c, err := store.Load()
	if err != nil {
		return nil, err
	}

	r.logger.Info("loaded catalog",
		zap.String("json", r.catalogPath),
		zap.Int("products", c.Len()),
		zap.Int("candidates", len(files)),
	)

	m := matcher.New(matcher.Options{
		Overwrite:         r.overwrite,
		PublicPrefix:      r.publicPrefix,
		MinimumConfidence: r.minConfidence,
	}, r.advisor, r.logger)

	report, err := m.Propose(ctx, c, files)
	if err != nil {
		return nil, err
	}

	if !r.quiet {
		renderReport(r.out, report)
	}

	r.logger.Info("matching finished",
		zap.Int("proposals", len(report.Proposals)),
		zap.Int("unmatched", len(report.Unmatched)),
		zap.Int("skipped", report.Skipped),
	)

	if !r.write {
		r.logger.Info("dry run, catalog left untouched", zap.String("hint", "pass --write to save the proposals"))
		return report, nil
	}

	applied, err := m.Apply(c, report, r.acceptor)
	if err != nil {
		return nil, fmt.Errorf("applying proposals: %w", err)
	}

	if applied == 0 {
		r.logger.Info("nothing to write", zap.String("json", r.catalogPath))
		return report, nil
	}

	if err := store.Save(c); err != nil {
		return nil, err
	}

	r.logger.Info("catalog updated", zap.String("json", r.catalogPath), zap.Int("applied", applied))
	return report, nil
}

func newAdvisor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Advisor, error) {
	apiKey, err := secrets.Load(fs, secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   geminiAPIKeyEnvVar,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := log.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	advisorLogger := log.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
		zap.Float64("minimum_confidence", cfg.MinimumConfidence),
	)

	return gemini.NewAdvisor(generator, advisorLogger, cfg.Gemini.MaxLogLength), nil
}

// chooseAcceptor returns the terminal review acceptor for interactive write runs
// and AcceptAll otherwise.
func chooseAcceptor(interactive, write bool, log *zap.Logger) matcher.Acceptor {
	if !interactive {
		return matcher.AcceptAll
	}
	if !write {
		log.Warn("ignoring --interactive", zap.String("reason", "nothing is written without --write"))
		return matcher.AcceptAll
	}
	return newPromptAcceptor()
}

// promptAcceptor asks on the terminal about each proposal until the user picks
// one of the "all remaining" answers.
type promptAcceptor struct {
	acceptRest bool
	ask        func(label string) (string, error)
}

func newPromptAcceptor() *promptAcceptor {
	return &promptAcceptor{
		ask: func(label string) (string, error) {
			prompt := promptui.Select{
				Label: label,
				Items: []string{PromptAccept, PromptReject, PromptAcceptRest, PromptRejectRest},
			}
			_, answer, err := prompt.Run()
			return answer, err
		},
	}
}

func (a *promptAcceptor) Accept(p matcher.Proposal) (bool, error) {
	if a.acceptRest {
		return true, nil
	}

	label := fmt.Sprintf("%s %s -> %s", p.ProductID, strings.TrimSpace(p.ProductName), p.Path)
	if p.Previous != "" {
		label += fmt.Sprintf(" (replaces %s)", p.Previous)
	}

	answer, err := a.ask(label)
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return false, matcher.ErrStop
		}
		return false, err
	}

	switch answer {
	case PromptAccept:
		return true, nil
	case PromptReject:
		return false, nil
	case PromptAcceptRest:
		a.acceptRest = true
		return true, nil
	case PromptRejectRest:
		return false, matcher.ErrStop
	default:
		return false, fmt.Errorf("invalid answer: %s", answer)
	}
}
