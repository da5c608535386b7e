package cmd

import (
	"context"
	"errors"

	"github.com/spigell/catalog-assets/internal/catalog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errLoadProducts = errors.New("could not load products")

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Render the catalog the way the storefront shows it",
	Long: `list loads the catalog from a file or an http(s) URL given with --json and prints
one row per product card, with the placeholder image, default name and formatted price
filled in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		config, log, err := setup()
		if err != nil {
			return err
		}

		c, err := catalog.Open(ctx, fs, catalog.NewClient(log), config.JSON)
		if err != nil {
			log.Error("could not load products", zap.String("json", config.JSON), zap.Error(err))
			return errLoadProducts
		}

		defaults := catalog.DefaultCardDefaults()
		if config.Placeholder != "" {
			defaults.Placeholder = config.Placeholder
		}

		cards := make([]catalog.Card, 0, c.Len())
		for _, p := range c.Products {
			cards = append(cards, catalog.CardOf(p, defaults))
		}

		log.Info("loaded products", zap.String("json", config.JSON), zap.Int("count", len(cards)))

		if !viper.GetBool("quiet") {
			renderCards(cmd.OutOrStdout(), cards)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
